// Package cli is the ruphctl command surface. Protected commands run the
// session guard before doing anything; failures surface as one user-facing
// message with the server's wording when it supplied any.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruphautomations/ruphctl/internal/api"
	"github.com/ruphautomations/ruphctl/internal/app"
	"github.com/ruphautomations/ruphctl/internal/domain"
	"github.com/ruphautomations/ruphctl/internal/guard"
	"github.com/ruphautomations/ruphctl/internal/tools/devicesim"
)

func NewRootCommand(a *app.App) *cobra.Command {
	root := &cobra.Command{
		Use:           "ruphctl",
		Short:         "Control Ruph Automations relay controllers from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCommand(a),
		newRegisterCommand(a),
		newControllersCommand(a),
		newControllerCommand(a),
		newActivateCommand(a),
		newStatusCommand(a),
		newSessionCommand(a),
		devicesim.NewCommand(a.Logger),
	)
	return root
}

// Execute wires the app and runs the command tree. It returns the process
// exit code rather than exiting so main stays trivial.
func Execute() int {
	ctx := context.Background()
	a, cleanup, err := app.Initialize(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ruphctl:", err)
		return 1
	}
	defer cleanup()

	root := NewRootCommand(a)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ruphctl:", err)
		return 1
	}
	return 0
}

// requireSession is the command-side route guard: unauthorized means a
// redirect to login, phrased for a terminal.
func requireSession(a *app.App) (*domain.Session, error) {
	status, sess := guard.Check(a.Store, a.Logger)
	if status != guard.Authorized {
		return nil, errors.New("no active session, run `ruphctl login` first")
	}
	return sess, nil
}

// failure converts an API error into what the user sees: the server's
// message when it sent one, the caller's generic fallback otherwise.
// Validation and other local errors pass through untouched.
func failure(err error, fallback string) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.UserMessage(fallback))
	}
	return err
}
