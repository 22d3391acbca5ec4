// Package pipeline fits the preprocessing and regression chain on a cleaned
// table and applies it to new rows.
//
// Numeric features are mean imputed and standardized, categorical features
// are mode imputed and one-hot encoded, and the resulting design matrix
// (numeric block first) is fitted by ordinary least squares with intercept.
// A TrainedPipeline is immutable and safe for concurrent use.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/linear"
	"github.com/YuminosukeSato/tabfit/metrics"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/pkg/log"
	"github.com/YuminosukeSato/tabfit/preprocessing"
)

// TrainRequest selects the features and target of a training run.
type TrainRequest struct {
	Features []string `json:"features" validate:"required,min=1,dive,required"`
	Target   string   `json:"target" validate:"required"`
}

// FitReport describes a training run. Scores are in-sample.
type FitReport struct {
	ID            string   `json:"id"`
	Features      []string `json:"features"`
	Target        string   `json:"target"`
	Rows          int      `json:"rows"`
	DesignColumns []string `json:"design_columns"`
	Rank          int      `json:"rank"`
	metrics.Report
	Duration time.Duration `json:"duration_ns"`
}

// Coefficient is the weight of one design column.
type Coefficient struct {
	Column string  `json:"column"`
	Weight float64 `json:"weight"`
}

// TrainedPipeline is a fitted preprocessing and regression chain.
type TrainedPipeline struct {
	id       string
	features []string
	target   string

	// numeric[i] is true when features[i] is a numeric feature
	numeric []bool

	numImputer *preprocessing.SimpleImputer
	catImputer *preprocessing.SimpleImputer
	scaler     *preprocessing.StandardScaler
	encoder    *preprocessing.OneHotEncoder
	model      *linear.LinearRegression

	spec   preprocessing.ColumnSpec
	report FitReport
}

// Train validates req against cleaned and fits a pipeline on every row of
// cleaned.
func Train(ctx context.Context, cleaned *dataset.Table, req TrainRequest, opts ...Option) (*TrainedPipeline, FitReport, error) {
	const op = "Train"
	cfg := &trainConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	start := time.Now()

	spec, err := validate(cleaned, req)
	if err != nil {
		return nil, FitReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, FitReport{}, errors.Wrap(err, "train")
	}

	p := &TrainedPipeline{
		id:       uuid.NewString(),
		features: append([]string{}, req.Features...),
		target:   req.Target,
		numeric:  make([]bool, len(req.Features)),
		spec:     spec,
	}
	for i, name := range req.Features {
		p.numeric[i] = spec.IsNumeric(name)
	}
	logger := cfg.logger.With(log.EstimatorIDKey, p.id, log.ModelNameKey, "LinearRegression")

	X, designColumns, err := p.fitTransform(cleaned, spec)
	if err != nil {
		return nil, FitReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, FitReport{}, errors.Wrap(err, "train")
	}

	targetCol, _ := cleaned.Column(req.Target)
	y := mat.NewVecDense(cleaned.NumRows(), targetCol.Floats())

	p.model = linear.NewLinearRegression(linear.WithRcond(cfg.rcond))
	if err := p.model.Fit(X, y); err != nil {
		if errors.KindOf(err) == errors.KindUnknown {
			err = errors.NewFitError(op, "least squares solve failed", err)
		}
		return nil, FitReport{}, err
	}

	pred, err := p.model.Predict(X)
	if err != nil {
		return nil, FitReport{}, err
	}
	scores, err := metrics.Evaluate(y, pred.(*mat.Dense).ColView(0))
	if err != nil {
		return nil, FitReport{}, errors.NewFitError(op, "scoring failed", err)
	}

	p.report = FitReport{
		ID:            p.id,
		Features:      append([]string{}, p.features...),
		Target:        p.target,
		Rows:          cleaned.NumRows(),
		DesignColumns: designColumns,
		Rank:          p.model.Rank,
		Report:        scores,
		Duration:      time.Since(start),
	}

	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, p.report.Rows,
		log.FeaturesKey, len(designColumns),
		log.TargetKey, p.target,
		log.RankKey, p.report.Rank,
		log.R2ScoreKey, scores.R2,
		log.MSEKey, scores.MSE,
		log.DurationMsKey, p.report.Duration.Milliseconds(),
	)
	return p, p.report, nil
}

func validate(t *dataset.Table, req TrainRequest) (preprocessing.ColumnSpec, error) {
	const op = "Train"
	if t == nil {
		return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, "", "no table")
	}
	if len(req.Features) == 0 {
		return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, "", "no features selected")
	}
	if req.Target == "" {
		return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, "", "no target selected")
	}
	target, ok := t.Column(req.Target)
	if !ok {
		return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, req.Target, "target not found")
	}
	if target.Kind != dataset.Numeric {
		return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, req.Target, "target must be numeric")
	}

	seen := make(map[string]bool, len(req.Features))
	for _, name := range req.Features {
		if name == req.Target {
			return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, name, "target cannot also be a feature")
		}
		if _, ok := t.Column(name); !ok {
			return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, name, "feature not found")
		}
		if seen[name] {
			return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, name, "duplicate feature")
		}
		seen[name] = true
	}

	if t.NumRows() == 0 {
		return preprocessing.ColumnSpec{}, errors.NewFitError(op, "no rows to train on", errors.ErrEmptyData)
	}
	for _, name := range req.Features {
		c, _ := t.Column(name)
		if c.MissingCount() == c.Len() {
			return preprocessing.ColumnSpec{}, errors.NewSchemaError(op, name, "feature has no observed values")
		}
	}
	if err := errors.CheckFinite(op, "target "+req.Target, target.Floats()); err != nil {
		return preprocessing.ColumnSpec{}, err
	}

	return preprocessing.Classify(t).Subset(req.Features), nil
}

// fitTransform fits the imputers, scaler and encoder and returns the
// design matrix with its column names.
func (p *TrainedPipeline) fitTransform(t *dataset.Table, spec preprocessing.ColumnSpec) (*mat.Dense, []string, error) {
	rows := t.NumRows()
	var (
		blocks []mat.Matrix
		names  []string
	)

	numCols := columns(t, spec.Numeric)
	p.numImputer = preprocessing.NewSimpleImputer(preprocessing.StrategyMean)
	p.scaler = preprocessing.NewStandardScalerDefault()
	if len(numCols) > 0 {
		if err := p.numImputer.Fit(numCols); err != nil {
			return nil, nil, err
		}
		filled, err := p.numImputer.TransformColumns(numCols)
		if err != nil {
			return nil, nil, err
		}
		raw := mat.NewDense(rows, len(filled), nil)
		for j, c := range filled {
			raw.SetCol(j, c.Floats())
		}
		scaled, err := p.scaler.FitTransform(raw)
		if err != nil {
			return nil, nil, err
		}
		blocks = append(blocks, scaled)
		names = append(names, spec.Numeric...)
	}

	catCols := columns(t, spec.Categorical)
	p.catImputer = preprocessing.NewSimpleImputer(preprocessing.StrategyMostFrequent)
	p.encoder = preprocessing.NewOneHotEncoder()
	if len(catCols) > 0 {
		if err := p.catImputer.Fit(catCols); err != nil {
			return nil, nil, err
		}
		filled, err := p.catImputer.TransformColumns(catCols)
		if err != nil {
			return nil, nil, err
		}
		if err := p.encoder.Fit(filled); err != nil {
			return nil, nil, err
		}
		encoded, err := p.encoder.Transform(filled)
		if err != nil {
			return nil, nil, err
		}
		if encoded != nil {
			blocks = append(blocks, encoded)
			names = append(names, p.encoder.FeatureNames()...)
		}
	}

	if len(names) == 0 {
		return nil, nil, errors.NewFitError("Train", "empty design matrix", nil)
	}
	X := mat.NewDense(rows, len(names), nil)
	offset := 0
	for _, b := range blocks {
		_, c := b.Dims()
		X.Slice(0, rows, offset, offset+c).(*mat.Dense).Copy(b)
		offset += c
	}
	return X, names, nil
}

func columns(t *dataset.Table, names []string) []*dataset.Column {
	out := make([]*dataset.Column, 0, len(names))
	for _, name := range names {
		c, _ := t.Column(name)
		out = append(out, c)
	}
	return out
}

// ID returns the pipeline identifier.
func (p *TrainedPipeline) ID() string { return p.id }

// Features returns the frozen feature list in request order.
func (p *TrainedPipeline) Features() []string { return append([]string{}, p.features...) }

// Target returns the target column name.
func (p *TrainedPipeline) Target() string { return p.target }

// Report returns the report produced by Train.
func (p *TrainedPipeline) Report() FitReport { return p.report }

// Intercept returns the fitted intercept in standardized feature space.
func (p *TrainedPipeline) Intercept() float64 { return p.model.GetIntercept() }

// Coefficients returns the weight of every design column.
func (p *TrainedPipeline) Coefficients() []Coefficient {
	weights := p.model.GetWeights()
	out := make([]Coefficient, len(weights))
	for i, w := range weights {
		out[i] = Coefficient{Column: p.report.DesignColumns[i], Weight: w}
	}
	return out
}

func (p *TrainedPipeline) String() string {
	return fmt.Sprintf("TrainedPipeline(id=%s, target=%s, features=%v)", p.id, p.target, p.features)
}

// Spec returns the numeric and categorical split of the features.
func (p *TrainedPipeline) Spec() preprocessing.ColumnSpec { return p.spec }
