package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ruphautomations/ruphctl/internal/app"
)

func newLoginCommand(a *app.App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptIfEmpty(cmd, &email, "Email: "); err != nil {
				return err
			}
			if err := promptIfEmpty(cmd, &password, "Password: "); err != nil {
				return err
			}
			sess, err := a.API.Login(cmd.Context(), email, password)
			if err != nil {
				return failure(err, "Unable to log in")
			}
			a.Logger.Info("logged in", "email", sess.Email)
			cmd.Printf("Logged in as %s <%s>\n", sess.Name, sess.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newRegisterCommand(a *app.App) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptIfEmpty(cmd, &name, "Name: "); err != nil {
				return err
			}
			if err := promptIfEmpty(cmd, &email, "Email: "); err != nil {
				return err
			}
			if err := promptIfEmpty(cmd, &password, "Password: "); err != nil {
				return err
			}
			sess, err := a.API.Register(cmd.Context(), name, email, password)
			if err != nil {
				return failure(err, "Unable to sign up")
			}
			a.Logger.Info("account created", "email", sess.Email)
			cmd.Printf("Account created for %s <%s>\n", sess.Name, sess.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func promptIfEmpty(cmd *cobra.Command, value *string, prompt string) error {
	if *value != "" {
		return nil
	}
	cmd.Print(prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	*value = strings.TrimSpace(line)
	return nil
}
