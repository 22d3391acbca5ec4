package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabfit/chart"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

func (a *app) analyzeCommand() *cobra.Command {
	var (
		target   string
		group    string
		chartDir string
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print target correlations and grouped averages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := a.loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			corrs, err := sess.Correlation(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Correlation with %s:\n", target)
			if len(corrs) == 0 {
				fmt.Fprintln(a.out, "  (none)")
			}
			for _, c := range corrs {
				fmt.Fprintf(a.out, "  %-24s %.4f\n", c.Column, c.Coefficient)
			}

			size := chart.Size{WidthIn: a.cfg.ChartWidthIn, HeightIn: a.cfg.ChartHeightIn}
			if chartDir != "" {
				if err := os.MkdirAll(chartDir, 0o755); err != nil {
					return errors.Wrap(err, "mkdir chart dir")
				}
				p, err := chart.Correlation(corrs, target)
				if err != nil {
					return err
				}
				if err := chart.Save(filepath.Join(chartDir, "correlation.png"), p, size); err != nil {
					return err
				}
			}

			if group == "" {
				return nil
			}
			groups, err := sess.GroupedAverage(target, group)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Average %s by %s:\n", target, group)
			if len(groups) == 0 {
				fmt.Fprintln(a.out, "  (none)")
			}
			for _, g := range groups {
				fmt.Fprintf(a.out, "  %-24s %.4f (n=%d)\n", g.Group, g.Mean, g.Count)
			}
			if chartDir != "" {
				p, err := chart.GroupedAverage(groups, target, group)
				if err != nil {
					return err
				}
				return chart.Save(filepath.Join(chartDir, "grouped-average.png"), p, size)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "numeric target column")
	cmd.Flags().StringVar(&group, "group", "", "categorical column to average the target over")
	cmd.Flags().StringVar(&chartDir, "chart-dir", "", "directory to write PNG charts into")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
