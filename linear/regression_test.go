package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

func TestLinearRegression_Basic(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if math.Abs(lr.GetWeights()[0]-2) > 1e-10 {
		t.Errorf("Expected coefficient 2.0, got %f", lr.GetWeights()[0])
	}
	if math.Abs(lr.GetIntercept()-1) > 1e-10 {
		t.Errorf("Expected intercept 1.0, got %f", lr.GetIntercept())
	}
	if lr.Rank != 1 {
		t.Errorf("Rank = %d, want 1", lr.Rank)
	}

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	expected := []float64{11, 13}
	for i := 0; i < 2; i++ {
		if math.Abs(pred.At(i, 0)-expected[i]) > 1e-10 {
			t.Errorf("Expected prediction %f, got %f", expected[i], pred.At(i, 0))
		}
	}
}

func TestLinearRegression_NoIntercept(t *testing.T) {
	// y = 2x
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if math.Abs(lr.GetWeights()[0]-2) > 1e-10 {
		t.Errorf("Expected coefficient 2.0, got %f", lr.GetWeights()[0])
	}
	if lr.GetIntercept() != 0 {
		t.Errorf("Expected intercept 0, got %f", lr.GetIntercept())
	}
}

func TestLinearRegression_MultipleFeatures(t *testing.T) {
	// y = 2*x1 + 3*x2 + 1
	X := mat.NewDense(5, 2, []float64{
		1, 1,
		2, 1,
		3, 2,
		4, 2,
		5, 3,
	})
	y := mat.NewDense(5, 1, []float64{6, 8, 13, 15, 20})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	want := []float64{2, 3}
	for j, w := range lr.GetWeights() {
		if math.Abs(w-want[j]) > 1e-9 {
			t.Errorf("coef[%d] = %f, want %f", j, w, want[j])
		}
	}
	if math.Abs(lr.GetIntercept()-1) > 1e-9 {
		t.Errorf("intercept = %f, want 1", lr.GetIntercept())
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(score-1) > 1e-12 {
		t.Errorf("Score = %v, want 1", score)
	}
}

// 線形従属な列は最小ノルム解で係数を等分する
func TestLinearRegression_CollinearColumns(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		4, 4,
	})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit on collinear data: %v", err)
	}
	if lr.Rank != 1 {
		t.Errorf("Rank = %d, want 1", lr.Rank)
	}
	w := lr.GetWeights()
	if math.Abs(w[0]-1) > 1e-9 || math.Abs(w[1]-1) > 1e-9 {
		t.Errorf("weights = %v, want minimum-norm [1 1]", w)
	}
}

// 標本数より特徴量が多い場合も学習でき、訓練データを再現する
func TestLinearRegression_Underdetermined(t *testing.T) {
	X := mat.NewDense(3, 4, []float64{
		1, 2, 1, 0,
		3, 4, 0, 1,
		2, 6, 1, 0,
	})
	y := mat.NewDense(3, 1, []float64{10, 20, 30})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if lr.Rank > 2 {
		t.Errorf("centered rank = %d, cannot exceed n_samples-1", lr.Rank)
	}

	pred, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(pred.At(i, 0)-y.At(i, 0)) > 1e-8 {
			t.Errorf("row %d: pred %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
}

func TestLinearRegression_ConstantTarget(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{5, 5, 5})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if lr.GetWeights()[0] != 0 || lr.GetIntercept() != 5 {
		t.Errorf("weights=%v intercept=%v, want 0 and 5", lr.GetWeights(), lr.GetIntercept())
	}
}

func TestLinearRegression_Determinism(t *testing.T) {
	X := mat.NewDense(5, 3, []float64{
		1, 0.5, 3,
		2, 1.5, 1,
		3, 0.2, 4,
		4, 2.5, 1,
		5, 0.1, 5,
	})
	y := mat.NewDense(5, 1, []float64{1, 4, 2, 8, 3})

	a, b := NewLinearRegression(), NewLinearRegression()
	if err := a.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	for j := range a.GetWeights() {
		if a.GetWeights()[j] != b.GetWeights()[j] {
			t.Errorf("coef[%d] differs: %v vs %v", j, a.GetWeights()[j], b.GetWeights()[j])
		}
	}
	if a.GetIntercept() != b.GetIntercept() {
		t.Errorf("intercept differs: %v vs %v", a.GetIntercept(), b.GetIntercept())
	}
}

func TestLinearRegression_Errors(t *testing.T) {
	lr := NewLinearRegression()
	if _, err := lr.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("expected NotFittedError")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("got %T, want NotFittedError", err)
		}
	}

	X := mat.NewDense(2, 1, []float64{1, math.NaN()})
	y := mat.NewDense(2, 1, []float64{1, 2})
	if err := lr.Fit(X, y); errors.KindOf(err) != errors.KindFit {
		t.Errorf("NaN input: got %v, want FitError", err)
	}

	if err := lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(3, 1, []float64{1, 2, 3})); err == nil {
		t.Error("expected DimensionError for mismatched rows")
	}

	if err := lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2})); err != nil {
		t.Fatal(err)
	}
	if _, err := lr.PredictRow([]float64{1, 2}); err == nil {
		t.Error("expected DimensionError for wrong feature count")
	}
	got, err := lr.PredictRow([]float64{3})
	if err != nil || math.Abs(got-3) > 1e-10 {
		t.Errorf("PredictRow = %v, %v; want 3", got, err)
	}
}
