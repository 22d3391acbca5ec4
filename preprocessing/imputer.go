package preprocessing

import (
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/tabfit/core/model"
	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// ColumnFill records how one column was imputed.
type ColumnFill struct {
	Column string
	Kind   dataset.ColumnKind
	Fill   dataset.Value
	Filled int
}

// ImputeReport summarizes an Impute call.
type ImputeReport struct {
	// MissingBefore and MissingAfter count missing cells over the table.
	MissingBefore int
	MissingAfter  int
	// Fills has one entry per column that had at least one observed value.
	Fills []ColumnFill
	// Unresolved lists columns with no observed value; they stay missing.
	Unresolved []string
}

// Fill returns the fill value chosen for column.
func (r ImputeReport) Fill(column string) (dataset.Value, bool) {
	for _, f := range r.Fills {
		if f.Column == column {
			return f.Fill, true
		}
	}
	return dataset.Missing(), false
}

// Impute replaces missing numeric cells with the column mean and missing
// categorical cells with the column mode. Statistics are computed over the
// whole table. Columns without any observed value are left missing, listed
// in the report and announced through errors.Warn. t is not modified.
func Impute(t *dataset.Table, spec ColumnSpec) (*dataset.Table, ImputeReport, error) {
	var report ImputeReport
	if t == nil {
		return nil, report, errors.NewSchemaError("Impute", "", "no table")
	}
	report.MissingBefore = t.MissingCount()

	var replaced []*dataset.Column
	for _, name := range append(append([]string{}, spec.Numeric...), spec.Categorical...) {
		col, ok := t.Column(name)
		if !ok {
			return nil, report, errors.NewSchemaError("Impute", name, "column not found")
		}
		fill, ok := fillValue(col, spec.IsNumeric(name))
		if !ok {
			report.Unresolved = append(report.Unresolved, name)
			continue
		}
		filled, n := fillColumn(col, fill)
		report.Fills = append(report.Fills, ColumnFill{Column: name, Kind: col.Kind, Fill: fill, Filled: n})
		if n > 0 {
			replaced = append(replaced, filled)
		}
	}

	out, err := t.ReplaceColumns(replaced...)
	if err != nil {
		return nil, report, err
	}
	report.MissingAfter = out.MissingCount()

	if len(report.Unresolved) > 0 {
		errors.Warn(errors.NewImputationWarning(report.Unresolved, "no observed values"))
	}
	return out, report, nil
}

// fillValue returns the mean (numeric) or mode (categorical) of the
// observed values of c. ok is false when nothing is observed.
func fillValue(c *dataset.Column, numeric bool) (dataset.Value, bool) {
	if numeric {
		m, ok := meanOf(c)
		if !ok {
			return dataset.Missing(), false
		}
		return dataset.Number(m), true
	}
	m, ok := modeOf(c)
	if !ok {
		return dataset.Missing(), false
	}
	return dataset.Text(m), true
}

func meanOf(c *dataset.Column) (float64, bool) {
	observed := make([]float64, 0, c.Len())
	for _, v := range c.Values {
		if f, ok := v.Float(); ok {
			observed = append(observed, f)
		}
	}
	if len(observed) == 0 {
		return 0, false
	}
	return stat.Mean(observed, nil), true
}

// modeOf returns the most frequent text; ties go to the value seen first.
func modeOf(c *dataset.Column) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		s := v.Text()
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, s := range order[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best, true
}

func fillColumn(c *dataset.Column, fill dataset.Value) (*dataset.Column, int) {
	values := make([]dataset.Value, len(c.Values))
	n := 0
	for i, v := range c.Values {
		if v.IsMissing() {
			values[i] = fill
			n++
		} else {
			values[i] = v
		}
	}
	return &dataset.Column{Name: c.Name, Kind: c.Kind, Values: values}, n
}

// ImputeStrategy selects the statistic used by SimpleImputer.
type ImputeStrategy int

const (
	// StrategyMean fills with the column mean.
	StrategyMean ImputeStrategy = iota
	// StrategyMostFrequent fills with the column mode.
	StrategyMostFrequent
)

func (s ImputeStrategy) String() string {
	if s == StrategyMean {
		return "mean"
	}
	return "most_frequent"
}

// SimpleImputer はscikit-learnのSimpleImputerに相当する列単位の補完器
// 学習時の統計量を保持し、予測時の欠損値を同じ値で埋める
type SimpleImputer struct {
	model.BaseEstimator

	Strategy ImputeStrategy

	// Columns は学習した列名（順序は学習時のまま）
	Columns []string

	// Statistics は列ごとの補完値
	Statistics []dataset.Value
}

// NewSimpleImputer は新しいSimpleImputerを作成する
func NewSimpleImputer(strategy ImputeStrategy) *SimpleImputer {
	return &SimpleImputer{Strategy: strategy}
}

// Fit は各列の補完値を学習する。観測値が一つもない列はSchemaErrorになる
func (s *SimpleImputer) Fit(columns []*dataset.Column) error {
	s.Columns = make([]string, len(columns))
	s.Statistics = make([]dataset.Value, len(columns))
	for i, c := range columns {
		fill, ok := fillValue(c, s.Strategy == StrategyMean)
		if !ok {
			return errors.NewSchemaError("SimpleImputer.Fit", c.Name, "column has no observed values")
		}
		s.Columns[i] = c.Name
		s.Statistics[i] = fill
	}
	s.SetFitted()
	return nil
}

// TransformColumns は各列の欠損値を補完した新しい列を返す
func (s *SimpleImputer) TransformColumns(columns []*dataset.Column) ([]*dataset.Column, error) {
	if err := s.RequireFitted("SimpleImputer", "TransformColumns"); err != nil {
		return nil, err
	}
	if len(columns) != len(s.Columns) {
		return nil, errors.NewDimensionError("SimpleImputer.TransformColumns", len(s.Columns), len(columns), 1)
	}
	out := make([]*dataset.Column, len(columns))
	for i, c := range columns {
		out[i], _ = fillColumn(c, s.Statistics[i])
	}
	return out, nil
}

// TransformRow は1行分の値の欠損を補完する
func (s *SimpleImputer) TransformRow(row []dataset.Value) ([]dataset.Value, error) {
	if err := s.RequireFitted("SimpleImputer", "TransformRow"); err != nil {
		return nil, err
	}
	if len(row) != len(s.Columns) {
		return nil, errors.NewDimensionError("SimpleImputer.TransformRow", len(s.Columns), len(row), 1)
	}
	out := make([]dataset.Value, len(row))
	for i, v := range row {
		if v.IsMissing() {
			out[i] = s.Statistics[i]
		} else {
			out[i] = v
		}
	}
	return out, nil
}
