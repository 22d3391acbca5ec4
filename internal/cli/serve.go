package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabfit/chart"
	"github.com/YuminosukeSato/tabfit/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.ServerAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.newSession(),
				server.WithLogger(a.provider.GetLoggerWithName("server")),
				server.WithMaxUploadBytes(a.cfg.MaxUploadBytes),
				server.WithChartSize(chart.Size{WidthIn: a.cfg.ChartWidthIn, HeightIn: a.cfg.ChartHeightIn}),
				server.WithRateLimit(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server_addr)")
	return cmd
}
