package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "List your positions",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			resp, err := a.sync.ListPositions(cmd.Context())
			if err != nil {
				return err
			}
			return a.reporter.Positions(cmd.Context(), a.out, resp)
		}),
	}
}

func newPrefsCmd() *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write the search preferences stored on the backend",
	}

	getCmd := &cobra.Command{
		Use:   "get POSITION_ID",
		Short: "Show the search preferences of a position",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parsePositionID(args[0])
			if err != nil {
				return err
			}
			prefs, err := a.sync.GetPreferences(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.reporter.Preferences(cmd.Context(), a.out, prefs)
		}),
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle-manual POSITION_ID",
		Short: "Flip manual query mode of a position",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parsePositionID(args[0])
			if err != nil {
				return err
			}
			enabled, err := a.sync.ToggleManualQuery(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.reporter.ManualQuery(cmd.Context(), a.out, id, enabled)
		}),
	}

	syncCmd := &cobra.Command{
		Use:   "sync POSITION_ID",
		Short: "Push local settings to a position without counting vacancies",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parsePositionID(args[0])
			if err != nil {
				return err
			}
			prefs, err := a.sync.SyncSettings(cmd.Context(), id, a.settings.Settings())
			if err != nil {
				return err
			}
			return a.reporter.Preferences(cmd.Context(), a.out, prefs)
		}),
	}

	prefsCmd.AddCommand(getCmd, toggleCmd, syncCmd)
	return prefsCmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [POSITION_ID]",
		Short: "Count vacancies matching the backend preferences of a position",
		Long: `Count vacancies matching the search preferences stored for POSITION_ID.

Without POSITION_ID the count uses your local settings and the first position.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				id, err := parsePositionID(args[0])
				if err != nil {
					return err
				}
				total, err := a.sync.GetTotalVacancies(ctx, id, nil)
				if err != nil {
					return err
				}
				return a.reporter.Count(ctx, a.out, total)
			}

			total, err := a.flow.FetchCount(ctx)
			if err != nil {
				return err
			}
			return a.reporter.Count(ctx, a.out, total)
		}),
	}
}

func parsePositionID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid position id %q", s)
	}
	return id, nil
}
