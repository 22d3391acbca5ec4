package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabfit/session"
)

func (a *app) summaryCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Load a dataset and print its cleaning summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, summary, err := a.loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(a.out, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(w io.Writer, s session.Summary) {
	fmt.Fprintf(w, "Rows: %d\n", s.Rows)
	fmt.Fprintf(w, "Columns: %d\n", s.Columns)
	fmt.Fprintf(w, "Missing values before cleaning: %d\n", s.MissingBefore)
	fmt.Fprintf(w, "Missing values after cleaning: %d\n", s.MissingAfter)
	fmt.Fprintf(w, "Numeric columns: %s\n", strings.Join(s.Numeric, ", "))
	fmt.Fprintf(w, "Categorical columns: %s\n", strings.Join(s.Categorical, ", "))
	fmt.Fprintf(w, "Encoded columns: %s\n", strings.Join(s.EncodedColumns, ", "))
	for _, f := range s.Fills {
		if f.Filled > 0 {
			fmt.Fprintf(w, "  filled %d in %s with %s\n", f.Filled, f.Column, f.Fill)
		}
	}
	if len(s.Unresolved) > 0 {
		fmt.Fprintf(w, "Columns with no observed values: %s\n", strings.Join(s.Unresolved, ", "))
	}
}
