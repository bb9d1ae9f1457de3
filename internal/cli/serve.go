package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runoshun/hora/internal/app"
	"github.com/runoshun/hora/internal/httpapi"
)

// newServeCommand creates the serve command.
func newServeCommand(c *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the task API over HTTP until interrupted.

The caller identity of each request is read from the X-Hora-Identity
header, which must be set by a trusted proxy that verified the caller.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.AppConfig.HTTP.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c.Slog.Info("serving", "addr", addr)
			return httpapi.NewServer(c).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: [http] addr)")

	return cmd
}
