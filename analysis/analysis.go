// Package analysis computes the descriptive statistics shown next to a
// loaded dataset: per-group averages of a target and the ranking of columns
// by correlation with it.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/tabfit/core/parallel"
	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// GroupMean is the average target value of one group.
type GroupMean struct {
	Group string  `json:"group"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Correlation is the strength of the linear relation between a column and
// the target.
type Correlation struct {
	Column string `json:"column"`
	// Coefficient is |r|.
	Coefficient float64 `json:"coefficient"`
	// Signed is r.
	Signed float64 `json:"signed"`
}

// parallelThreshold is the number of candidate columns above which
// correlations are computed concurrently.
const parallelThreshold = 32

// GroupedAverage returns the mean of target for every observed value of
// group, ordered by group value. Rows where either cell is missing are
// skipped.
func GroupedAverage(t *dataset.Table, target, group string) ([]GroupMean, error) {
	const op = "GroupedAverage"
	if t == nil {
		return nil, errors.NewSchemaError(op, "", "no table")
	}
	tc, ok := t.Column(target)
	if !ok {
		return nil, errors.NewSchemaError(op, target, "column not found")
	}
	if tc.Kind != dataset.Numeric {
		return nil, errors.NewSchemaError(op, target, "target must be numeric")
	}
	gc, ok := t.Column(group)
	if !ok {
		return nil, errors.NewSchemaError(op, group, "column not found")
	}
	if gc.Kind != dataset.Categorical {
		return nil, errors.NewSchemaError(op, group, "group column must be categorical")
	}

	buckets := make(map[string][]float64)
	for i, g := range gc.Values {
		y, ok := tc.Values[i].Float()
		if g.IsMissing() || !ok {
			continue
		}
		buckets[g.Text()] = append(buckets[g.Text()], y)
	}

	out := make([]GroupMean, 0, len(buckets))
	for g, ys := range buckets {
		out = append(out, GroupMean{Group: g, Mean: stat.Mean(ys, nil), Count: len(ys)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

// TargetCorrelation ranks every numeric column other than target by the
// absolute Pearson coefficient with target, strongest first. Ties keep the
// table's column order. Columns whose coefficient is undefined (constant
// values or missing cells) are left out.
func TargetCorrelation(t *dataset.Table, target string) ([]Correlation, error) {
	const op = "TargetCorrelation"
	if t == nil {
		return nil, errors.NewSchemaError(op, "", "no table")
	}
	tc, ok := t.Column(target)
	if !ok {
		return nil, errors.NewSchemaError(op, target, "column not found")
	}
	if tc.Kind != dataset.Numeric {
		return nil, errors.NewSchemaError(op, target, "target must be numeric")
	}
	y := tc.Floats()
	if !allFinite(y) {
		return []Correlation{}, nil
	}

	var candidates []*dataset.Column
	for _, c := range t.Columns() {
		if c.Name != target && c.Kind == dataset.Numeric {
			candidates = append(candidates, c)
		}
	}

	results := parallel.Map(len(candidates), parallelThreshold, func(i int) *Correlation {
		x := candidates[i].Floats()
		r, ok := pearson(x, y)
		if !ok {
			return nil
		}
		return &Correlation{Column: candidates[i].Name, Coefficient: math.Abs(r), Signed: r}
	})

	out := make([]Correlation, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Coefficient > out[j].Coefficient })
	return out, nil
}

func pearson(x, y []float64) (float64, bool) {
	if len(x) < 2 || !allFinite(x) {
		return 0, false
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0, false
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	// 丸め誤差で|r|が1を超えることがある
	return math.Max(-1, math.Min(1, r)), true
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
