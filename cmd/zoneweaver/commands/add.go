package commands

import (
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <fqdn> <value>",
		Short: "Publish a DNS-01 challenge TXT record",
		Long: `Publish a TXT record for an ACME DNS-01 challenge.

If an identical record already exists nothing is changed. If a record
with the same name but a different value exists it is updated in place.

Example:
  zoneweaver add _acme-challenge.example.com 2cJc9FAFIbGTmJXn3tkjPxj6Cwmf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, provider, err := setup()
			if err != nil {
				return err
			}
			return provider.Present(cmd.Context(), args[0], args[1])
		},
	}
}
