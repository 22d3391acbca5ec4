// Package session owns the single in-memory dataset and model.
//
// A Session holds a pointer to an immutable State guarded by a RWMutex.
// Load and Train build the next State without holding the lock and publish
// it in one step, so readers always see a consistent dataset and model.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/tabfit/analysis"
	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pipeline"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/pkg/log"
	"github.com/YuminosukeSato/tabfit/preprocessing"
)

// DefaultOrdinalColumn is the categorical column given an ordinal code in
// the analysis encoding.
const DefaultOrdinalColumn = "size"

// Option configures a Session.
type Option func(*Session)

// WithOrdinalColumn sets the pass-through column of the analysis encoding.
func WithOrdinalColumn(name string) Option {
	return func(s *Session) { s.ordinalColumn = name }
}

// WithMissingTokens replaces the default missing value spellings for
// uploads and prediction requests.
func WithMissingTokens(tokens []string) Option {
	return func(s *Session) { s.missingTokens = append([]string{}, tokens...) }
}

// WithRcond sets the singular value cutoff used by Train.
func WithRcond(rcond float64) Option {
	return func(s *Session) { s.rcond = rcond }
}

// WithLogger sets the session logger.
func WithLogger(l log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is the single ownership point of the loaded dataset and model.
type Session struct {
	mu    sync.RWMutex
	state *State

	ordinalColumn string
	missingTokens []string
	rcond         float64
	coercer       *dataset.Coercer
	logger        log.Logger
}

// New creates an empty Session.
func New(opts ...Option) *Session {
	s := &Session{ordinalColumn: DefaultOrdinalColumn}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NopLogger()
	}
	s.coercer = dataset.NewCoercer(s.missingTokens)
	return s
}

// Snapshot returns the current State, or nil before the first Load.
func (s *Session) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Load reads a dataset, cleans and encodes it and makes it current.
// Any previously trained model is discarded.
func (s *Session) Load(ctx context.Context, r io.Reader, format dataset.Format) (summary Summary, err error) {
	defer errors.Recover(&err, "Session.Load")

	opts := []dataset.ReadOption{}
	if s.missingTokens != nil {
		opts = append(opts, dataset.WithMissingTokens(s.missingTokens))
	}
	raw, err := dataset.Read(r, format, opts...)
	if err != nil {
		s.logger.Error("Dataset rejected", log.OperationKey, log.OperationLoad, "error", err, log.ErrorTypeKey, errors.KindOf(err))
		return Summary{}, err
	}
	return s.publish(ctx, raw, string(format))
}

// LoadTable cleans and encodes an already parsed table and makes it current.
func (s *Session) LoadTable(ctx context.Context, raw *dataset.Table) (summary Summary, err error) {
	defer errors.Recover(&err, "Session.LoadTable")
	return s.publish(ctx, raw, "table")
}

func (s *Session) publish(ctx context.Context, raw *dataset.Table, source string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, errors.Wrap(err, "load")
	}
	spec := preprocessing.Classify(raw)
	cleaned, report, err := preprocessing.Impute(raw, spec)
	if err != nil {
		return Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, errors.Wrap(err, "load")
	}
	encoded, err := preprocessing.EncodeForAnalysis(cleaned, spec, s.ordinalColumn)
	if err != nil {
		return Summary{}, err
	}

	id := uuid.NewString()
	next := &State{
		DatasetID: id,
		Cleaned:   cleaned,
		Encoded:   encoded,
		Spec:      spec,
		Summary: Summary{
			DatasetID:      id,
			Source:         source,
			Rows:           raw.NumRows(),
			Columns:        raw.NumCols(),
			MissingBefore:  report.MissingBefore,
			MissingAfter:   report.MissingAfter,
			Numeric:        spec.Numeric,
			Categorical:    spec.Categorical,
			EncodedColumns: encoded.Names(),
			Unresolved:     report.Unresolved,
			Fills:          report.Fills,
			LoadedAt:       time.Now(),
		},
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	s.logger.Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.DatasetIDKey, id,
		log.SamplesKey, next.Summary.Rows,
		log.ColumnsKey, next.Summary.Columns,
		log.MissingKey, next.Summary.MissingBefore,
	)
	if len(report.Unresolved) > 0 {
		s.logger.Warn("Columns left unimputed", log.DatasetIDKey, id, log.ColumnKey, report.Unresolved)
	}
	return next.Summary, nil
}

// Summary returns the summary of the current dataset. ok is false when no
// dataset is loaded.
func (s *Session) Summary() (summary Summary, ok bool) {
	st := s.Snapshot()
	if !st.HasData() {
		return Summary{}, false
	}
	return st.Summary, true
}

// Columns returns the numeric and categorical columns of the current
// dataset. It is empty before the first Load.
func (s *Session) Columns() preprocessing.ColumnSpec {
	st := s.Snapshot()
	if !st.HasData() {
		return preprocessing.ColumnSpec{}
	}
	return st.Spec
}

// GroupedAverage returns the mean of target per value of group over the
// cleaned dataset. It is empty when no dataset is loaded or either column
// is absent. Columns of the wrong kind are a SchemaError.
func (s *Session) GroupedAverage(target, group string) (out []analysis.GroupMean, err error) {
	defer errors.Recover(&err, "Session.GroupedAverage")

	st := s.Snapshot()
	if !st.HasData() || target == "" || group == "" {
		return []analysis.GroupMean{}, nil
	}
	if _, ok := st.Cleaned.Column(target); !ok {
		return []analysis.GroupMean{}, nil
	}
	if _, ok := st.Cleaned.Column(group); !ok {
		return []analysis.GroupMean{}, nil
	}
	out, err = analysis.GroupedAverage(st.Cleaned, target, group)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Grouped average computed", log.OperationKey, log.OperationGroupAverage, log.TargetKey, target, log.ColumnKey, group)
	return out, nil
}

// Correlation ranks the encoded columns by |r| with target. It is empty
// when no dataset is loaded or target is absent. A categorical target is a
// SchemaError.
func (s *Session) Correlation(target string) (out []analysis.Correlation, err error) {
	defer errors.Recover(&err, "Session.Correlation")

	st := s.Snapshot()
	if !st.HasData() || target == "" {
		return []analysis.Correlation{}, nil
	}
	if st.Spec.IsCategorical(target) {
		return nil, errors.NewSchemaError("Correlation", target, "target must be numeric")
	}
	if _, ok := st.Encoded.Column(target); !ok {
		return []analysis.Correlation{}, nil
	}
	out, err = analysis.TargetCorrelation(st.Encoded, target)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Correlation computed", log.OperationKey, log.OperationCorrelate, log.TargetKey, target)
	return out, nil
}

// Train fits a pipeline on the current dataset and makes it current. If a
// new dataset was loaded while training ran, the result is discarded and a
// StateError is returned.
func (s *Session) Train(ctx context.Context, req pipeline.TrainRequest) (report pipeline.FitReport, err error) {
	defer errors.Recover(&err, "Session.Train")

	st := s.Snapshot()
	if !st.HasData() {
		return pipeline.FitReport{}, errors.NewStateError("Train", "dataset")
	}

	p, report, err := pipeline.Train(ctx, st.Cleaned, req,
		pipeline.WithRcond(s.rcond),
		pipeline.WithLogger(s.logger.With(log.DatasetIDKey, st.DatasetID)),
	)
	if err != nil {
		s.logger.Error("Training failed", log.OperationKey, log.OperationFit, "error", err, log.ErrorTypeKey, errors.KindOf(err))
		return pipeline.FitReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.DatasetID != st.DatasetID {
		return pipeline.FitReport{}, errors.WithHint(
			errors.NewStateError("Train", "dataset snapshot"),
			"a new dataset was loaded while training; train again")
	}
	s.state = s.state.withPipeline(p)
	return report, nil
}

// Predict parses a comma separated request and predicts it with the
// current pipeline.
func (s *Session) Predict(line string) (y float64, err error) {
	defer errors.Recover(&err, "Session.Predict")

	st := s.Snapshot()
	if !st.HasModel() {
		return 0, errors.NewStateError("Predict", "model")
	}
	y, err = st.Pipeline.Predict(pipeline.ParseRequestWith(s.coercer, line))
	if err != nil {
		s.logger.Warn("Prediction rejected", log.OperationKey, log.OperationPredict, "error", err, log.ErrorTypeKey, errors.KindOf(err))
		return 0, err
	}
	s.logger.Debug("Prediction", log.OperationKey, log.OperationPredict, log.EstimatorIDKey, st.Pipeline.ID(), log.PredictionKey, y)
	return y, nil
}

// Model returns the current pipeline, or nil.
func (s *Session) Model() *pipeline.TrainedPipeline {
	st := s.Snapshot()
	if st == nil {
		return nil
	}
	return st.Pipeline
}

// FormatScore renders an R² value for display.
func FormatScore(r2 float64) string {
	return fmt.Sprintf("R² Score: %.4f", r2)
}

// FormatPrediction renders a predicted value for display.
func FormatPrediction(y float64) string {
	return fmt.Sprintf("Prediction: %.4f", y)
}
