package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/internal/api"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr := a.cfg.Addr
			if v, _ := cmd.Flags().GetString("addr"); v != "" {
				addr = v
			}

			srv := api.New(api.Deps{
				Store:    a.store,
				Balances: a.balances,
				Runner:   a.runner,
				Reports:  a.reports,
				Metrics:  a.metrics,
				Log:      a.log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default ADDR)")
	cmd.Flags().Bool("debug", false, "Enable debug output")

	return cmd
}
