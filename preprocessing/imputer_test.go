package preprocessing

import (
	"reflect"
	"testing"

	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

func TestImputeConcreteScenario(t *testing.T) {
	tbl := mustReadCSV(t, "a,b,c,target\n1,2,x,10\n3,,y,20\n,6,x,30\n")

	cleaned, report, err := Impute(tbl, Classify(tbl))
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	if got := column(t, cleaned, "b").Values[1]; got.Text() != "4" {
		t.Errorf("b[1] = %v, want 4", got)
	}
	if got := column(t, cleaned, "a").Values[2]; got.Text() != "2" {
		t.Errorf("a[2] = %v, want 2", got)
	}
	if report.MissingBefore != 2 || report.MissingAfter != 0 {
		t.Errorf("missing before/after = %d/%d, want 2/0", report.MissingBefore, report.MissingAfter)
	}
	if column(t, tbl, "a").MissingCount() != 1 {
		t.Error("input table was modified")
	}
}

func TestImputeNoMissingIsNoop(t *testing.T) {
	tbl := mustReadCSV(t, "a,b,c\n1,2,x\n3,4,y\n5,6,x\n")

	cleaned, _, err := Impute(tbl, Classify(tbl))
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	if !reflect.DeepEqual(cleaned.Names(), tbl.Names()) {
		t.Fatalf("names changed: %v", cleaned.Names())
	}
	for i := 0; i < tbl.NumRows(); i++ {
		if !reflect.DeepEqual(cleaned.Row(i), tbl.Row(i)) {
			t.Errorf("row %d changed: %v -> %v", i, tbl.Row(i), cleaned.Row(i))
		}
	}
}

func TestImputeFillValues(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		column string
		want   string
	}{
		{name: "mean", csv: "v\n0.1\nNA\n0.2\n0.4\n", column: "v", want: dataset.Number(runtimeMean(0.1, 0.2, 0.4)).Text()},
		{name: "mode", csv: "v\na\nb\nb\nNA\na\nb\n", column: "v", want: "b"},
		{name: "mode tie takes first seen", csv: "v\nb\na\nNA\na\nb\n", column: "v", want: "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustReadCSV(t, tt.csv)
			cleaned, report, err := Impute(tbl, Classify(tbl))
			if err != nil {
				t.Fatalf("Impute: %v", err)
			}
			fill, ok := report.Fill(tt.column)
			if !ok {
				t.Fatal("no fill recorded")
			}
			if fill.Text() != tt.want {
				t.Errorf("fill = %q, want %q", fill.Text(), tt.want)
			}
			if n := column(t, cleaned, tt.column).MissingCount(); n != 0 {
				t.Errorf("%d missing values left", n)
			}
		})
	}
}

func TestImputeAllMissingColumn(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	tbl := mustReadCSV(t, "a,empty\n1,\n2,\n")
	cleaned, report, err := Impute(tbl, Classify(tbl))
	if err != nil {
		t.Fatalf("Impute: %v", err)
	}
	if !reflect.DeepEqual(report.Unresolved, []string{"empty"}) {
		t.Errorf("Unresolved = %v", report.Unresolved)
	}
	if n := column(t, cleaned, "empty").MissingCount(); n != 2 {
		t.Errorf("empty column should stay missing, got %d missing", n)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	var iw *errors.ImputationWarning
	if !errors.As(warnings[0], &iw) {
		t.Errorf("warning type = %T", warnings[0])
	}
}

func TestSimpleImputer(t *testing.T) {
	tbl := mustReadCSV(t, "a,c\n1,x\n,y\n5,y\n")
	a, c := column(t, tbl, "a"), column(t, tbl, "c")

	mean := NewSimpleImputer(StrategyMean)
	if _, err := mean.TransformRow([]dataset.Value{dataset.Missing()}); err == nil {
		t.Error("expected NotFittedError before Fit")
	}
	if err := mean.Fit([]*dataset.Column{a}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	row, err := mean.TransformRow([]dataset.Value{dataset.Missing()})
	if err != nil {
		t.Fatalf("TransformRow: %v", err)
	}
	if f, _ := row[0].Float(); f != 3 {
		t.Errorf("imputed = %v, want 3", f)
	}

	mode := NewSimpleImputer(StrategyMostFrequent)
	if err := mode.Fit([]*dataset.Column{c}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	cols, err := mode.TransformColumns([]*dataset.Column{c})
	if err != nil {
		t.Fatalf("TransformColumns: %v", err)
	}
	if cols[0].MissingCount() != 0 {
		t.Error("TransformColumns left missing values")
	}
	if mode.Statistics[0].Text() != "y" {
		t.Errorf("mode = %v, want y", mode.Statistics[0])
	}

	allMissing := &dataset.Column{Name: "e", Kind: dataset.Numeric, Values: []dataset.Value{dataset.Missing()}}
	if err := NewSimpleImputer(StrategyMean).Fit([]*dataset.Column{allMissing}); errors.KindOf(err) != errors.KindSchema {
		t.Errorf("Fit on all-missing column: got %v, want SchemaError", err)
	}
}

// runtimeMean avoids constant folding so the expected value is rounded the
// same way as the imputer's float64 sum.
func runtimeMean(values ...float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
