package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0x6d61/sofictl/internal/flow"
)

func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the vacancy count on a schedule until interrupted",
		Long: `Refresh the vacancy count for your local settings on a cron schedule.

The schedule accepts standard cron syntax or descriptors such as "@every 10m"
and "@hourly". Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, args []string, a *app) error {
			schedule, _ := cmd.Flags().GetString("schedule")
			if schedule == "" {
				schedule = a.cfg.WatchSchedule
			}

			ctx := cmd.Context()
			w := flow.NewWatcher(a.flow, schedule, a.logger)
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching vacancy count (%s), press Ctrl+C to stop\n", schedule)

			return w.Run(ctx, func(r flow.Result) {
				if r.Err != nil {
					a.logger.Error("vacancy count failed", "error", r.Err)
					return
				}
				fmt.Fprintf(a.out, "%s  vacancies: %d\n", r.At.Local().Format(time.DateTime), r.Count)
			})
		}),
	}
	watchCmd.Flags().String("schedule", "", "Cron schedule (default from config, \"@every 5m\")")
	return watchCmd
}
