package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gitlab.bluewillows.net/root/zoneweaver/internal/config"
	"gitlab.bluewillows.net/root/zoneweaver/pkg/credential"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Store the Zone.eu API key in the OS keyring",
		Long: `Store the Zone.eu API key in the OS keyring.

The key is prompted for without echo. Afterwards set
ZONEWEAVER_API_KEY_KEYRING=true to use the stored key.

Example:
  zoneweaver login my-zone-user`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return fmt.Errorf("username is required")
			}

			key, err := cmd.Flags().GetString("api-key")
			if err != nil {
				return err
			}

			key = strings.TrimSpace(key)
			if key == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter API key: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("reading API key: %w", err)
				}
				key = strings.TrimSpace(string(raw))
			}

			if key == "" {
				return fmt.Errorf("API key cannot be empty")
			}

			if err := credential.StoreInKeyring(config.KeyringService, username, key); err != nil {
				return fmt.Errorf("storing API key: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s\n", username)
			return nil
		},
	}

	cmd.Flags().String("api-key", "", "API key (optional, overrides prompt)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <username>",
		Short: "Remove a stored API key from the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if err := credential.DeleteFromKeyring(config.KeyringService, username); err != nil {
				return fmt.Errorf("removing API key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed API key for %s\n", username)
			return nil
		},
	}
}
