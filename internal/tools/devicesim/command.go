package devicesim

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
)

type options struct {
	addr     string
	batchIDs []string
}

// NewCommand returns the `devicesim` subcommand: a local backend and device
// simulator for developing against without hardware.
func NewCommand(logger *slog.Logger) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "devicesim",
		Short: "Run a local stand-in for the backend and a relay controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := NewServer(logger, opts.batchIDs...)
			srv.SetBaseURL("http://" + opts.addr)
			logger.Info("devicesim listening",
				"addr", opts.addr,
				"api_base", fmt.Sprintf("http://%s/api/v1", opts.addr),
				"device_base", fmt.Sprintf("http://%s/device", opts.addr),
				"batch_ids", opts.batchIDs,
			)
			return http.ListenAndServe(opts.addr, srv.Handler())
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "localhost:5000", "listen address")
	cmd.Flags().StringSliceVar(&opts.batchIDs, "batch-id", []string{"BATCH-0001"}, "batch IDs to seed as claimable controllers")
	return cmd
}
