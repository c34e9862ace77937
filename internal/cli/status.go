package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ruphautomations/ruphctl/internal/app"
	"github.com/ruphautomations/ruphctl/internal/device"
	"github.com/ruphautomations/ruphctl/internal/domain"
)

func newStatusCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show live circuit state alongside the controller list",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession(a)
			if err != nil {
				return err
			}

			var (
				controllers []domain.Controller
				live        device.DisplayState
				haveLive    bool
			)
			// The directory and the realtime store are independent hosts;
			// fetch both at once.
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				controllers, err = a.API.ListControllers(ctx, sess.Email)
				if err != nil {
					return failure(err, "Failed to fetch controllers")
				}
				return nil
			})
			g.Go(func() error {
				state, found, err := a.Device.ReadLiveState(ctx)
				if err != nil {
					// Live state is best-effort here; the listing is still
					// worth printing.
					a.Logger.Warn("live state unavailable", "error", err)
					return nil
				}
				live, haveLive = state, found
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			if len(controllers) == 0 {
				cmd.Println("No controllers found.")
				return nil
			}
			for _, c := range controllers {
				cmd.Printf("%-6d %-12s %-24s", c.ID, c.ControllerID, c.ControllerName)
				if haveLive {
					for i, on := range live {
						cmd.Printf("  c%d=%s", i+1, onOff(on))
					}
				} else {
					cmd.Printf("  (live state unavailable)")
				}
				cmd.Println()
			}
			return nil
		},
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
