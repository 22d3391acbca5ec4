package errors

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "tabfit: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "tabfit: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 3, 2, 1)

	want := "tabfit: Predict: dimension mismatch on axis 1 (features). Expected 3, got 2"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LinearRegression", "Predict")

	want := "tabfit: LinearRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    string
		wantMsg string
	}{
		{
			name:    "parse",
			err:     NewParseError("csv", 3, "wrong number of fields", nil),
			want:    KindParse,
			wantMsg: "tabfit: malformed csv input at line 3: wrong number of fields",
		},
		{
			name:    "schema",
			err:     NewSchemaError("Train", "price", "column not found"),
			want:    KindSchema,
			wantMsg: "tabfit: Train: column 'price': column not found",
		},
		{
			name:    "schema without column",
			err:     NewSchemaError("Train", "", "no features selected"),
			want:    KindSchema,
			wantMsg: "tabfit: Train: no features selected",
		},
		{
			name:    "fit",
			err:     NewFitError("Train", "zero rows", nil),
			want:    KindFit,
			wantMsg: "tabfit: Train: zero rows",
		},
		{
			name:    "shape",
			err:     NewShapeError("Predict", 3, 2),
			want:    KindShape,
			wantMsg: "tabfit: Predict: inputs don't match the trained features (expected 3 values, got 2)",
		},
		{
			name:    "state",
			err:     NewStateError("Predict", "model"),
			want:    KindState,
			wantMsg: "tabfit: Predict: no model available",
		},
		{
			name:    "wrapped shape",
			err:     Wrap(NewShapeError("Predict", 3, 2), "session"),
			want:    KindShape,
			wantMsg: "session: tabfit: Predict: inputs don't match the trained features (expected 3 values, got 2)",
		},
		{
			name:    "plain",
			err:     New("boom"),
			want:    KindUnknown,
			wantMsg: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
		})
	}

	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
}

func TestWithHint(t *testing.T) {
	err := WithHint(NewStateError("Train", "dataset"), "upload a CSV file first")

	if strings.Contains(err.Error(), "upload a CSV") {
		t.Error("hint should not be part of Error()")
	}
	if got := Hints(err); got != "upload a CSV file first" {
		t.Errorf("Hints() = %q", got)
	}
	if KindOf(err) != KindState {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindState)
	}
}

func TestWarn(t *testing.T) {
	var (
		mu       sync.Mutex
		received []error
	)
	SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, w)
	})
	defer SetWarningHandler(nil)

	Warn(NewImputationWarning([]string{"empty"}, "no observed values"))
	Warn(NewUndefinedMetricWarning("r2", "constant target", 0))

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(received))
	}
	want := "columns [empty] left unimputed: no observed values"
	if received[0].Error() != want {
		t.Errorf("Error() = %q, want %q", received[0].Error(), want)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrSingularMatrix, "in LinearRegression.Fit")

	if !Is(wrapped, ErrSingularMatrix) {
		t.Error("Expected Is(wrapped, ErrSingularMatrix) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in LinearRegression.Fit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestCheckFinite(t *testing.T) {
	if err := CheckFinite("Train", "target", []float64{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := CheckFinite("Train", "target", []float64{1, math.NaN()})
	if KindOf(err) != KindFit {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindFit)
	}
}
