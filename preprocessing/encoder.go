package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabfit/core/model"
	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// EncodeForAnalysis returns an all-numeric table for correlation analysis.
//
// Numeric columns are kept as they are. The passThrough column, if it is
// categorical, is replaced in place by an integer code assigned in order of
// first appearance. Every other categorical column is removed and replaced
// by one 0/1 indicator column per observed level except the lexically first,
// named "<column>_<level>" and appended after the kept columns. Missing
// categorical cells encode as all zeros.
func EncodeForAnalysis(t *dataset.Table, spec ColumnSpec, passThrough string) (*dataset.Table, error) {
	if t == nil {
		return nil, errors.NewSchemaError("EncodeForAnalysis", "", "no table")
	}

	var (
		kept       []*dataset.Column
		indicators []*dataset.Column
	)
	for _, c := range t.Columns() {
		switch {
		case spec.IsNumeric(c.Name) || c.Kind == dataset.Numeric:
			kept = append(kept, c)
		case c.Name == passThrough:
			kept = append(kept, ordinalColumn(c))
		default:
			indicators = append(indicators, dummyColumns(c)...)
		}
	}

	out, err := dataset.NewTable(append(kept, indicators...)...)
	if err != nil {
		return nil, errors.Wrap(err, "encode categorical columns")
	}
	return out, nil
}

// ordinalColumn codes levels 0, 1, 2, ... by first appearance.
func ordinalColumn(c *dataset.Column) *dataset.Column {
	codes := make(map[string]int)
	for i, level := range c.Levels() {
		codes[level] = i
	}
	values := make([]dataset.Value, len(c.Values))
	for i, v := range c.Values {
		if v.IsMissing() {
			values[i] = dataset.Missing()
			continue
		}
		values[i] = dataset.Number(float64(codes[v.Text()]))
	}
	return &dataset.Column{Name: c.Name, Kind: dataset.Numeric, Values: values}
}

// dummyColumns expands c into levels-1 indicator columns, dropping the
// lexically first level.
func dummyColumns(c *dataset.Column) []*dataset.Column {
	levels := c.SortedLevels()
	if len(levels) < 2 {
		return nil
	}
	out := make([]*dataset.Column, 0, len(levels)-1)
	for _, level := range levels[1:] {
		values := make([]dataset.Value, len(c.Values))
		for i, v := range c.Values {
			if !v.IsMissing() && v.Text() == level {
				values[i] = dataset.Number(1)
			} else {
				values[i] = dataset.Number(0)
			}
		}
		out = append(out, &dataset.Column{
			Name:   fmt.Sprintf("%s_%s", c.Name, level),
			Kind:   dataset.Numeric,
			Values: values,
		})
	}
	return out
}

// OneHotEncoder はscikit-learnのOneHotEncoder(handle_unknown="ignore")に相当する
// 各列の水準をソート順に学習し、水準ごとに1列の指示変数を作る（基準水準は落とさない）
// 学習時に見ていない水準は全て0のベクトルになる
type OneHotEncoder struct {
	model.BaseEstimator

	// Columns は学習した列名
	Columns []string

	// Categories は列ごとのソート済み水準
	Categories [][]string

	index []map[string]int
	width int
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// Fit は各列の水準を学習する
func (e *OneHotEncoder) Fit(columns []*dataset.Column) error {
	e.Columns = make([]string, len(columns))
	e.Categories = make([][]string, len(columns))
	e.index = make([]map[string]int, len(columns))
	e.width = 0
	for i, c := range columns {
		levels := c.SortedLevels()
		e.Columns[i] = c.Name
		e.Categories[i] = levels
		e.index[i] = make(map[string]int, len(levels))
		for j, level := range levels {
			e.index[i][level] = j
		}
		e.width += len(levels)
	}
	e.SetFitted()
	return nil
}

// Width は出力列数を返す
func (e *OneHotEncoder) Width() int { return e.width }

// FeatureNames は出力列の名前 "<column>_<level>" を返す
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.width)
	for i, col := range e.Columns {
		for _, level := range e.Categories[i] {
			names = append(names, fmt.Sprintf("%s_%s", col, level))
		}
	}
	return names
}

// EncodeRow は1行分のカテゴリ値を指示変数に変換する
func (e *OneHotEncoder) EncodeRow(row []dataset.Value) ([]float64, error) {
	if err := e.RequireFitted("OneHotEncoder", "EncodeRow"); err != nil {
		return nil, err
	}
	if len(row) != len(e.Columns) {
		return nil, errors.NewDimensionError("OneHotEncoder.EncodeRow", len(e.Columns), len(row), 1)
	}
	out := make([]float64, e.width)
	e.encodeInto(out, row)
	return out, nil
}

func (e *OneHotEncoder) encodeInto(dst []float64, row []dataset.Value) {
	offset := 0
	for i, v := range row {
		if !v.IsMissing() {
			if j, ok := e.index[i][v.Text()]; ok {
				dst[offset+j] = 1
			}
		}
		offset += len(e.Categories[i])
	}
}

// Transform は列をまとめて (n_samples × Width) の行列に変換する
// 行数または出力列数が0の場合はnilを返す
func (e *OneHotEncoder) Transform(columns []*dataset.Column) (*mat.Dense, error) {
	if err := e.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(columns) != len(e.Columns) {
		return nil, errors.NewDimensionError("OneHotEncoder.Transform", len(e.Columns), len(columns), 1)
	}
	rows := 0
	if len(columns) > 0 {
		rows = columns[0].Len()
	}
	if rows == 0 || e.width == 0 {
		return nil, nil
	}
	out := mat.NewDense(rows, e.width, nil)
	row := make([]dataset.Value, len(columns))
	for i := 0; i < rows; i++ {
		for j, c := range columns {
			row[j] = c.Values[i]
		}
		e.encodeInto(out.RawRowView(i), row)
	}
	return out, nil
}
