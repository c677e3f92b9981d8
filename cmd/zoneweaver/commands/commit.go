package commands

import (
	"github.com/spf13/cobra"
)

func commitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "commit",
		Aliases: []string{"save"},
		Short:   "Finalize pending record changes",
		Long: `Finalize pending record changes.

Zone.eu applies record changes immediately, so this succeeds without
doing anything. It exists so hook scripts written for providers with a
separate publish step work unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, provider, err := setup()
			if err != nil {
				return err
			}
			return provider.Commit(cmd.Context())
		},
	}
}
