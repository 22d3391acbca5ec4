package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/preprocessing"
)

func readTable(t *testing.T, text string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tbl
}

func TestGroupedAverage(t *testing.T) {
	tbl := readTable(t, "price,size\n100,small\n300,big\n200,small\nNA,big\n50,\n")

	got, err := GroupedAverage(tbl, "price", "size")
	if err != nil {
		t.Fatalf("GroupedAverage: %v", err)
	}
	want := []GroupMean{
		{Group: "big", Mean: 300, Count: 1},
		{Group: "small", Mean: 150, Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGroupedAverageErrors(t *testing.T) {
	tbl := readTable(t, "price,size,color\n1,a,x\n2,b,y\n")
	tests := []struct {
		name, target, group string
	}{
		{name: "unknown target", target: "nope", group: "size"},
		{name: "unknown group", target: "price", group: "nope"},
		{name: "categorical target", target: "color", group: "size"},
		{name: "numeric group", target: "price", group: "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GroupedAverage(tbl, tt.target, tt.group)
			if errors.KindOf(err) != errors.KindSchema {
				t.Errorf("got %v, want SchemaError", err)
			}
		})
	}
}

func TestTargetCorrelation(t *testing.T) {
	tbl := readTable(t, "target,up,down,noise,flat,color\n1,2,10,5,7,a\n2,4,8,1,7,b\n3,6,6,4,7,a\n4,8,4,2,7,b\n5,10,1,3,7,a\n")
	enc, err := preprocessing.EncodeForAnalysis(tbl, preprocessing.Classify(tbl), "size")
	if err != nil {
		t.Fatalf("EncodeForAnalysis: %v", err)
	}

	got, err := TargetCorrelation(enc, "target")
	if err != nil {
		t.Fatalf("TargetCorrelation: %v", err)
	}

	seen := make(map[string]bool)
	for i, c := range got {
		seen[c.Column] = true
		if c.Column == "target" {
			t.Error("target correlated with itself")
		}
		if i > 0 && got[i-1].Coefficient < c.Coefficient {
			t.Errorf("not sorted non-increasing at %d: %v", i, got)
		}
		if c.Coefficient < 0 || c.Coefficient > 1 || math.Abs(c.Signed) != c.Coefficient {
			t.Errorf("bad coefficient %+v", c)
		}
	}
	if seen["flat"] {
		t.Error("constant column should be excluded")
	}
	if got[0].Column != "up" || math.Abs(got[0].Coefficient-1) > 1e-12 {
		t.Errorf("strongest = %+v, want up with |r|=1", got[0])
	}
	if !seen["color_b"] {
		t.Error("indicator column missing from ranking")
	}
	for _, c := range got {
		if c.Column == "down" && c.Signed >= 0 {
			t.Errorf("down should correlate negatively: %+v", c)
		}
	}
}

func TestTargetCorrelationTiesKeepColumnOrder(t *testing.T) {
	tbl := readTable(t, "target,b,a\n1,1,1\n2,2,2\n3,3,3\n")
	got, err := TargetCorrelation(tbl, "target")
	if err != nil {
		t.Fatalf("TargetCorrelation: %v", err)
	}
	if len(got) != 2 || got[0].Column != "b" || got[1].Column != "a" {
		t.Errorf("got %v, want [b a]", got)
	}
}

func TestTargetCorrelationSingleColumn(t *testing.T) {
	tbl := readTable(t, "target\n1\n2\n")
	got, err := TargetCorrelation(tbl, "target")
	if err != nil {
		t.Fatalf("TargetCorrelation: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty ranking, got %v", got)
	}
	if _, err := TargetCorrelation(tbl, "nope"); errors.KindOf(err) != errors.KindSchema {
		t.Errorf("unknown target: got %v, want SchemaError", err)
	}
}
