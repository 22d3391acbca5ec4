package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})

	scaler := NewStandardScalerDefault()
	if _, err := scaler.Transform(X); err == nil {
		t.Fatal("expected NotFittedError")
	}

	Xs, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	// 母標準偏差: sqrt(1.25)
	if math.Abs(scaler.Scale[0]-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("Scale[0] = %v, want population std %v", scaler.Scale[0], math.Sqrt(1.25))
	}
	// 定数列はスケール1
	if scaler.Scale[1] != 1 {
		t.Errorf("Scale[1] = %v, want 1 for a constant column", scaler.Scale[1])
	}
	for i := 0; i < 4; i++ {
		if Xs.At(i, 1) != 0 {
			t.Errorf("constant column should transform to 0, got %v", Xs.At(i, 1))
		}
	}

	sum := 0.0
	for i := 0; i < 4; i++ {
		sum += Xs.At(i, 0)
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("standardized mean = %v, want 0", sum/4)
	}

	back, err := scaler.InverseTransform(Xs)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !mat.EqualApprox(back, X, 1e-12) {
		t.Errorf("InverseTransform did not restore input:\n%v", mat.Formatted(back))
	}
}

func TestStandardScalerTransformRow(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 1, []float64{0, 2})); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	row, err := scaler.TransformRow([]float64{3})
	if err != nil {
		t.Fatalf("TransformRow: %v", err)
	}
	if row[0] != 2 {
		t.Errorf("TransformRow = %v, want 2", row[0])
	}
	if _, err := scaler.TransformRow([]float64{1, 2}); err == nil {
		t.Error("expected DimensionError")
	}
}

func TestStandardScalerRejectsNaN(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()})); err == nil {
		t.Error("expected error for NaN input")
	}
}
