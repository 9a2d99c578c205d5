package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/0x6d61/sofictl/internal/preferences"
	"github.com/0x6d61/sofictl/internal/settings"
)

func newSettingsCmd() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Edit local search settings and push them to the backend",
	}
	settingsCmd.AddCommand(
		newSettingsShowCmd(),
		newSettingsSetCmd(),
		newSettingsResetCmd(),
		newSettingsSaveCmd(),
	)
	return settingsCmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show local search settings",
		Args:  cobra.NoArgs,
		RunE:  withApp(showSettings),
	}
}

func showSettings(cmd *cobra.Command, _ []string, a *app) error {
	savedAt, _ := a.settings.LastSaved(cmd.Context())
	return a.reporter.Settings(cmd.Context(), a.out, a.settings.Settings(), savedAt)
}

func newSettingsSetCmd() *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change local search settings",
		Long: `Change local search settings. Only the flags you pass are changed.

Industry labels may contain commas, so --industry is repeated instead of
comma-separated:

  sofictl settings set --keywords "go, kubernetes" --industry "Программист, разработчик"`,
		Args: cobra.NoArgs,
		RunE: withApp(runSettingsSet),
	}

	setCmd.Flags().String("keywords", "", "Keywords, comma or space separated")
	setCmd.Flags().String("exclude", "", "Excluded words, comma or space separated")
	setCmd.Flags().StringArray("industry", nil, "Replace industries (repeatable)")
	setCmd.Flags().StringArray("add-industry", nil, "Add an industry (repeatable)")
	setCmd.Flags().StringArray("remove-industry", nil, "Remove an industry (repeatable)")
	setCmd.Flags().Bool("clear-industries", false, "Remove all industries")
	setCmd.Flags().String("experience", "", "Experience level id (see: sofictl catalog experiences)")
	setCmd.Flags().Bool("title", true, "Search in vacancy titles")
	setCmd.Flags().Bool("description", false, "Search in vacancy descriptions")
	return setCmd
}

func runSettingsSet(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	var patch settings.Patch
	changed := false
	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		changed = true
		v, _ := flags.GetString(name)
		return &v
	}
	boolean := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		changed = true
		v, _ := flags.GetBool(name)
		return &v
	}

	patch.Keywords = str("keywords")
	patch.ExcludeWords = str("exclude")
	patch.ExperienceLevel = str("experience")
	patch.SearchInTitle = boolean("title")
	patch.SearchInDescription = boolean("description")

	// Industries: clear, then replace, then add, then remove.
	industries := a.settings.Settings().SelectedIndustries
	industriesChanged := false
	if clear, _ := flags.GetBool("clear-industries"); clear {
		industries = []string{}
		industriesChanged = true
	}
	if flags.Changed("industry") {
		industries, _ = flags.GetStringArray("industry")
		industriesChanged = true
	}
	add, _ := flags.GetStringArray("add-industry")
	for _, ind := range add {
		if !slices.Contains(industries, ind) {
			industries = append(industries, ind)
		}
		industriesChanged = true
	}
	remove, _ := flags.GetStringArray("remove-industry")
	for _, ind := range remove {
		industries = slices.DeleteFunc(industries, func(s string) bool { return s == ind })
		industriesChanged = true
	}
	if industriesChanged {
		if industries == nil {
			industries = []string{}
		}
		patch.SelectedIndustries = industries
		changed = true
	}

	if !changed {
		return errors.New("nothing to change: pass at least one flag (see --help)")
	}

	updated := a.settings.Update(ctx, patch)
	a.logger.Info("local settings updated",
		"keywords", preferences.Tokenize(updated.Keywords),
		"industries", len(updated.SelectedIndustries),
	)
	return showSettings(cmd, args, a)
}

func newSettingsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default local settings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			a.settings.Reset(cmd.Context())
			return showSettings(cmd, args, a)
		}),
	}
}

func newSettingsSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Push local settings to your first position and count vacancies",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			count, err := a.flow.Save(ctx)
			if err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
			return a.reporter.Count(ctx, a.out, preferences.TotalVacancies{
				TotalVacancies: count,
				PositionID:     a.flow.State().PositionID,
			})
		}),
	}
}
