// Package serve runs the HTTP upload and review endpoints.
package serve

import (
	"os"
	"os/signal"
	"syscall"

	"fjacquet/bank-movements/cmd/root"
	"fjacquet/bank-movements/internal/container"

	"github.com/spf13/cobra"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload and review HTTP API",
	Long: `Serve the HTTP API:

  POST /api/upload               multipart upload, field "files"
  GET  /api/review/pending       ?scope=expenses|all
  GET  /api/concepts
  POST /api/review/commit        {"decisions": [...]}

The server stops cleanly on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.WithContainer(func(c *container.Container) error {
			listen := c.GetConfig().Server.Addr
			if addr != "" {
				listen = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.NewServer().Start(ctx, listen)
		})
	},
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
}
