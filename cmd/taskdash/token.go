// file: cmd/taskdash/token.go
package main

import (
	"bufio"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored ClickUp API token",
		Long:  "Stores the token in the OS keyring, or in the token file when no keyring is available. CLICKUP_API_TOKEN and the config file take precedence over the stored token.",
	}

	token.AddCommand(&cobra.Command{
		Use:   "set [token]",
		Short: "Store the API token (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.tokens == nil {
				return errors.New("no token storage is available")
			}
			value := ""
			if len(args) == 1 {
				value = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.Wrap(err, "failed to read token from stdin")
				}
				value = line
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return errors.New("token is empty")
			}
			if err := a.tokens.SaveToken(value, a.cfg.ClickUp.TeamID); err != nil {
				return err
			}
			return a.render.Success("Token stored in %s.", a.tokens.Name())
		},
	})

	token.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.tokens == nil {
				return errors.New("no token storage is available")
			}
			if err := a.tokens.DeleteToken(); err != nil {
				return err
			}
			return a.render.Success("Token removed from %s.", a.tokens.Name())
		},
	})
	return token
}
