package pipeline

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// ParseRequest splits a comma separated prediction request into values.
// Each piece is trimmed and coerced with the default missing tokens.
func ParseRequest(line string) []dataset.Value {
	return ParseRequestWith(nil, line)
}

// ParseRequestWith is ParseRequest with an explicit coercer. A nil coercer
// uses the default missing tokens.
func ParseRequestWith(c *dataset.Coercer, line string) []dataset.Value {
	parts := strings.Split(line, ",")
	values := make([]dataset.Value, len(parts))
	for i, part := range parts {
		if c == nil {
			values[i] = dataset.Coerce(part)
		} else {
			values[i] = c.Coerce(part)
		}
	}
	return values
}

// Predict returns the prediction for one row of values aligned with
// Features. Missing values are imputed with the training statistics and
// unseen categorical levels are ignored.
func (p *TrainedPipeline) Predict(values []dataset.Value) (float64, error) {
	const op = "Predict"
	if len(values) != len(p.features) {
		return 0, errors.NewShapeError(op, len(p.features), len(values))
	}

	var (
		num []dataset.Value
		cat []dataset.Value
	)
	for i, v := range values {
		if p.numeric[i] {
			if v.Kind() == dataset.KindText {
				return 0, errors.NewSchemaError(op, p.features[i], fmt.Sprintf("expected a number, got %q", v.Text()))
			}
			num = append(num, v)
		} else {
			cat = append(cat, v.AsText())
		}
	}
	return p.predictSplit(num, cat)
}

// predictSplit builds the design row from the numeric and categorical
// values, each in feature order.
func (p *TrainedPipeline) predictSplit(num, cat []dataset.Value) (float64, error) {
	x := make([]float64, 0, p.model.NFeatures)

	if len(num) > 0 {
		filled, err := p.numImputer.TransformRow(num)
		if err != nil {
			return 0, err
		}
		raw := make([]float64, len(filled))
		for j, v := range filled {
			raw[j], _ = v.Float()
		}
		scaled, err := p.scaler.TransformRow(raw)
		if err != nil {
			return 0, err
		}
		x = append(x, scaled...)
	}

	if len(cat) > 0 {
		filled, err := p.catImputer.TransformRow(cat)
		if err != nil {
			return 0, err
		}
		encoded, err := p.encoder.EncodeRow(filled)
		if err != nil {
			return 0, err
		}
		x = append(x, encoded...)
	}

	return p.model.PredictRow(x)
}

// PredictRows predicts every row of t. t must contain every feature column
// with a compatible kind; other columns are ignored.
func (p *TrainedPipeline) PredictRows(t *dataset.Table) ([]float64, error) {
	const op = "PredictRows"
	if t == nil {
		return nil, errors.NewSchemaError(op, "", "no table")
	}
	cols := make([]*dataset.Column, len(p.features))
	for i, name := range p.features {
		c, ok := t.Column(name)
		if !ok {
			return nil, errors.NewSchemaError(op, name, "feature not found")
		}
		if p.numeric[i] && c.Kind != dataset.Numeric {
			return nil, errors.NewSchemaError(op, name, "feature must be numeric")
		}
		cols[i] = c
	}

	out := make([]float64, t.NumRows())
	row := make([]dataset.Value, len(cols))
	for r := range out {
		for i, c := range cols {
			row[i] = c.Values[r]
		}
		y, err := p.Predict(row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", r+1)
		}
		out[r] = y
	}
	return out, nil
}
