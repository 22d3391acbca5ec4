package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabfit/pipeline"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/session"
)

func (a *app) trainCommand() *cobra.Command {
	var (
		features []string
		target   string
		predicts []string
	)
	cmd := &cobra.Command{
		Use:   "train <file>",
		Short: "Fit a linear model and optionally predict rows",
		Example: `  tabfit train houses.csv --features area,rooms,size --target price \
    --predict "120,3,big" --predict "80,2,small"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := a.loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			report, err := sess.Train(cmd.Context(), pipeline.TrainRequest{Features: features, Target: target})
			if err != nil {
				return errors.Wrap(err, "training error")
			}
			fmt.Fprintln(a.out, session.FormatScore(report.R2))
			fmt.Fprintf(a.out, "RMSE: %.4f  MAE: %.4f  rank: %d/%d\n",
				report.RMSE, report.MAE, report.Rank, len(report.DesignColumns))

			model := sess.Model()
			fmt.Fprintf(a.out, "  %-24s %.6f\n", "(intercept)", model.Intercept())
			for _, c := range model.Coefficients() {
				fmt.Fprintf(a.out, "  %-24s %.6f\n", c.Column, c.Weight)
			}

			failed := 0
			for _, line := range predicts {
				y, err := sess.Predict(line)
				if err != nil {
					failed++
					fmt.Fprintf(a.out, "%q: Errors - inputs don't match the dataset: %v\n", line, err)
					continue
				}
				fmt.Fprintf(a.out, "%q: %s\n", line, session.FormatPrediction(y))
			}
			if failed > 0 {
				return errors.Newf("%d of %d predictions failed", failed, len(predicts))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&features, "features", nil, "feature columns, comma separated, in prediction order")
	cmd.Flags().StringVar(&target, "target", "", "numeric target column")
	cmd.Flags().StringArrayVar(&predicts, "predict", nil, "comma separated feature values to predict (repeatable)")
	_ = cmd.MarkFlagRequired("features")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
