package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ruphautomations/ruphctl/internal/app"
	"github.com/ruphautomations/ruphctl/internal/guard"
	"github.com/ruphautomations/ruphctl/internal/session"
)

func newSessionCommand(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the stored session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored identity and token expiry",
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := a.Store.Load()
				if err != nil {
					if errors.Is(err, session.ErrNoSession) {
						cmd.Println("No session stored.")
						return nil
					}
					return err
				}
				cmd.Printf("User:  %s <%s> (id %d)\n", sess.Name, sess.Email, sess.UserID)
				if exp, ok := guard.TokenExpiry(sess.AccessToken); ok {
					cmd.Printf("Token: expires %s\n", exp.Local().Format("2006-01-02 15:04:05"))
				} else {
					cmd.Println("Token: no readable expiry")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored session (log out locally)",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.Store.Clear(); err != nil {
					return err
				}
				cmd.Println("Session cleared.")
				return nil
			},
		},
	)
	return cmd
}
