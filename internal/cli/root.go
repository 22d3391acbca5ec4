// Package cli implements the tabfit command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabfit/internal/config"
	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pipeline"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/pkg/log"
	"github.com/YuminosukeSato/tabfit/session"
)

// app carries state shared by all subcommands.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfgFile  string
	logLevel string

	cfg      *config.Config
	provider *log.ZerologProvider
}

// NewRootCommand builds the tabfit command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "tabfit",
		Short:         "Clean, analyze and fit linear models on tabular data",
		Long:          `tabfit loads a CSV or XLSX table, imputes missing values, encodes categorical columns, reports grouped averages and target correlations, and fits an ordinary least squares model for single-row prediction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.tabfit/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		a.summaryCommand(),
		a.analyzeCommand(),
		a.trainCommand(),
		a.serveCommand(),
		a.configCommand(),
	)
	return root
}

// Execute is the entry point called by main.main().
func Execute() {
	if err := NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := errors.Hints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}

func (a *app) setup() error {
	c, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	return a.apply(c)
}

// apply installs c and the loggers derived from it.
func (a *app) apply(c *config.Config) error {
	if a.logLevel != "" {
		c.LogLevel = a.logLevel
		if err := c.Validate(); err != nil {
			return err
		}
	}
	a.cfg = c

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	a.provider = log.NewZerologProviderWithWriter(a.errOut, level)
	errors.SetZerologWarnFunc(a.provider.WarnFunc())
	pipeline.SetLoggerProvider(a.provider)
	return log.SetupLogger(c.LogLevel, a.errOut)
}

func (a *app) newSession() *session.Session {
	opts := []session.Option{
		session.WithOrdinalColumn(a.cfg.OrdinalColumn),
		session.WithRcond(a.cfg.Rcond),
		session.WithLogger(a.provider.GetLoggerWithName("session")),
	}
	if a.cfg.MissingTokens != nil {
		opts = append(opts, session.WithMissingTokens(a.cfg.MissingTokens))
	}
	return session.New(opts...)
}

// loadFile creates a session and loads path into it. The format follows
// the file extension.
func (a *app) loadFile(ctx context.Context, path string) (*session.Session, session.Summary, error) {
	format, err := dataset.ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, session.Summary{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, session.Summary{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sess := a.newSession()
	summary, err := sess.Load(ctx, f, format)
	if err != nil {
		return nil, session.Summary{}, errors.Wrapf(err, "Error processing file %s", path)
	}
	return sess, summary, nil
}
