// Package tabfit cleans, analyzes and models a single tabular dataset.
//
// A dataset is uploaded as CSV or XLSX, typed column by column, imputed
// (mean for numeric columns, most frequent value for categorical columns)
// and encoded. On the cleaned table tabfit computes grouped averages and
// the correlation of every numeric or encoded column with a chosen target,
// and fits an ordinary least squares model that predicts one row at a time
// from raw comma separated values.
//
// # Packages
//
//   - dataset: tagged cell values, typed columns, CSV and XLSX readers
//   - preprocessing: column classification, imputation, one-hot and
//     ordinal encoding, standard scaling
//   - analysis: grouped averages and target correlation
//   - linear: least squares regression with a minimum norm solution
//   - metrics: R², MSE, RMSE, MAE
//   - pipeline: the fitted imputer, scaler, encoder and regressor chain
//   - session: the single owner of the current dataset and model
//   - chart: PNG bar charts of the analysis series
//   - internal/server, internal/cli: the HTTP API and the tabfit command
//
// # Quick Start
//
//	sess := session.New()
//	if _, err := sess.Load(ctx, f, dataset.FormatCSV); err != nil {
//	    return err
//	}
//	report, err := sess.Train(ctx, pipeline.TrainRequest{
//	    Features: []string{"area", "rooms", "size"},
//	    Target:   "price",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(session.FormatScore(report.R2))
//
//	y, err := sess.Predict("120,3,big")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(session.FormatPrediction(y))
//
// # Errors
//
// Operations return errors of five kinds from pkg/errors: ParseError,
// SchemaError, FitError, ShapeError and StateError. errors.KindOf names the
// kind; the HTTP API maps it to a status code.
//
// # Logging
//
// pkg/log defines a slog-compatible Logger with a zerolog backend and a
// set of standard attribute keys. Tests capture entries with
// log.NewTestLogger.
package tabfit
