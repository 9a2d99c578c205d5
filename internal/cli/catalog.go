package cli

import (
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show reference catalogs",
	}

	industriesCmd := &cobra.Command{
		Use:   "industries",
		Short: "List industries and their ids",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			items, err := a.sync.Industries(cmd.Context())
			if err != nil {
				return err
			}
			return a.reporter.Industries(cmd.Context(), a.out, items)
		}),
	}

	experiencesCmd := &cobra.Command{
		Use:   "experiences",
		Short: "List experience levels",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			items, err := a.sync.Experiences(cmd.Context())
			if err != nil {
				return err
			}
			return a.reporter.Experiences(cmd.Context(), a.out, items)
		}),
	}

	catalogCmd.AddCommand(industriesCmd, experiencesCmd)
	return catalogCmd
}
