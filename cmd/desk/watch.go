package main

import (
	"context"
	"fmt"
	"time"

	dashboard "challenge_desk/internal/modules/dashboard/service"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newWatchCmd() *cobra.Command {
	var quiet bool
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the dashboard live, serve it locally and print changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			var hub *dashboard.Hub
			opts := append(watchModules(), fx.Populate(&hub))
			return runApp(ctx, opts, func(ctx context.Context) error {
				views, unsubscribe := hub.Subscribe()
				defer unsubscribe()

				var last time.Time
				for {
					select {
					case <-ctx.Done():
						return nil
					case v := <-views:
						if quiet || time.Since(last) < every {
							continue
						}
						last = time.Now()
						fmt.Fprintf(cmd.OutOrStdout(), "--- v%d %s\n%s\n",
							v.Version, v.UpdatedAt.Format(time.TimeOnly), dashboard.Summary(v))
					}
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print views, only serve them")
	cmd.Flags().DurationVar(&every, "every", 2*time.Second, "print at most one view per interval")
	return cmd
}
