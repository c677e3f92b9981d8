package commands

import (
	"github.com/spf13/cobra"
)

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <fqdn> <value>",
		Short: "Remove a DNS-01 challenge TXT record",
		Long: `Remove the TXT record for an ACME DNS-01 challenge.

The record is only deleted if both its name and value match, so records
published by other ACME clients are left alone. A record that is already
gone is not an error.

Example:
  zoneweaver remove _acme-challenge.example.com 2cJc9FAFIbGTmJXn3tkjPxj6Cwmf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, provider, err := setup()
			if err != nil {
				return err
			}
			return provider.CleanUp(cmd.Context(), args[0], args[1])
		},
	}
}
