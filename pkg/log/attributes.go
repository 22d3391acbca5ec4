// Package log defines standard attribute keys for tabfit operations.
//
// Using the same keys everywhere keeps log analysis simple: every training
// entry carries "ml.operation", "data.samples" and "metrics.r2_score", every
// load entry carries "dataset.id", and so on. Keys follow a hierarchical
// "group.name" convention.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model or transformer.
	// Examples: "LinearRegression", "StandardScaler", "OneHotEncoder"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific trained pipeline (a UUID string).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "load", "fit", "predict", "correlate", "group_average"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "session", "pipeline", "server"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// DatasetIDKey identifies the uploaded dataset a snapshot was built from.
	DatasetIDKey = "dataset.id"

	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// ColumnsKey indicates the number of columns of a table.
	ColumnsKey = "data.columns"

	// ColumnKey names a single column.
	ColumnKey = "data.column"

	// TargetKey names the target column.
	TargetKey = "data.target"

	// MissingKey counts missing cells.
	MissingKey = "data.missing"

	// DataSizeKey indicates the payload size in bytes.
	DataSizeKey = "data.size_bytes"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records the coefficient of determination of a fit.
	// Range [-inf, 1.0], with 1.0 being perfect prediction.
	R2ScoreKey = "metrics.r2_score"

	// MSEKey records the in-sample mean squared error.
	MSEKey = "metrics.mse"

	// RankKey records the numerical rank of the design matrix.
	RankKey = "metrics.rank"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// PredictionKey records a single predicted value.
	PredictionKey = "preds.value"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey holds the operation error kind (ParseError, SchemaError, ...).
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Infrastructure
const (
	// RequestIDKey records the HTTP request identifier.
	RequestIDKey = "http.request_id"

	// HTTPRouteKey records the matched HTTP route.
	HTTPRouteKey = "http.route"
)

// Standard attribute values.
const (
	OperationLoad         = "load"
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationCorrelate    = "correlate"
	OperationGroupAverage = "group_average"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
	PhaseAnalysis      = "analysis"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
