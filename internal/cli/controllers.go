package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ruphautomations/ruphctl/internal/app"
	"github.com/ruphautomations/ruphctl/internal/tui"
)

func newControllersCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "controllers",
		Short: "List the controllers owned by the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession(a)
			if err != nil {
				return err
			}
			controllers, err := a.API.ListControllers(cmd.Context(), sess.Email)
			if err != nil {
				return failure(err, "Failed to fetch controllers")
			}
			if len(controllers) == 0 {
				cmd.Println("No controllers found.")
				return nil
			}
			for _, c := range controllers {
				cmd.Printf("%-6d %-12s %s\n", c.ID, c.ControllerID, c.ControllerName)
			}
			return nil
		},
	}
}

func newControllerCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "controller <id>",
		Short: "Open the interactive circuit panel for one controller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("controller id must be numeric, got %q", args[0])
			}
			model := tui.NewDetailModel(a, id)
			program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			final, err := program.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(tui.DetailModel); ok && m.Unauthorized() {
				return fmt.Errorf("no active session, run `ruphctl login` first")
			}
			return nil
		},
	}
}

func newActivateCommand(a *app.App) *cobra.Command {
	var batchID, name string
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Claim a controller batch ID for the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession(a)
			if err != nil {
				return err
			}
			if err := promptIfEmpty(cmd, &batchID, "Controller Batch ID: "); err != nil {
				return err
			}
			if err := promptIfEmpty(cmd, &name, "Controller Name: "); err != nil {
				return err
			}
			if err := a.API.ActivateController(cmd.Context(), batchID, name, sess.Email); err != nil {
				return failure(err, "Could not activate controller")
			}
			cmd.Println("Controller activated successfully.")
			return nil
		},
	}
	cmd.Flags().StringVar(&batchID, "batch-id", "", "pre-provisioned batch ID")
	cmd.Flags().StringVar(&name, "name", "", "display name, e.g. \"Main Pump Room\"")
	return cmd
}
