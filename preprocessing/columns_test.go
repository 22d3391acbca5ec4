package preprocessing

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tbl := mustReadCSV(t, "a,b,c,target\n1,2,x,10\n3,,y,20\n,6,x,30\n")

	spec := Classify(tbl)
	if want := []string{"a", "b", "target"}; !reflect.DeepEqual(spec.Numeric, want) {
		t.Errorf("Numeric = %v, want %v", spec.Numeric, want)
	}
	if want := []string{"c"}; !reflect.DeepEqual(spec.Categorical, want) {
		t.Errorf("Categorical = %v, want %v", spec.Categorical, want)
	}
	if spec.Len() != tbl.NumCols() {
		t.Errorf("spec covers %d columns, table has %d", spec.Len(), tbl.NumCols())
	}
}

func TestColumnSpecSubset(t *testing.T) {
	spec := ColumnSpec{Numeric: []string{"a", "b", "target"}, Categorical: []string{"c", "d"}}

	sub := spec.Subset([]string{"d", "b", "c", "nope", "a"})
	if want := []string{"b", "a"}; !reflect.DeepEqual(sub.Numeric, want) {
		t.Errorf("Numeric = %v, want %v", sub.Numeric, want)
	}
	if want := []string{"d", "c"}; !reflect.DeepEqual(sub.Categorical, want) {
		t.Errorf("Categorical = %v, want %v", sub.Categorical, want)
	}
	if !spec.IsNumeric("target") || spec.IsNumeric("c") || !spec.IsCategorical("d") {
		t.Error("IsNumeric/IsCategorical disagree with the spec lists")
	}
}
