package main

import (
	"context"
	"fmt"
	"strconv"

	"challenge_desk/internal/helper"
	"challenge_desk/internal/models"
	dashboard "challenge_desk/internal/modules/dashboard/service"
	trading "challenge_desk/internal/modules/trading/service"
	"challenge_desk/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newTradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trade <buy|sell> <symbol> <quantity>",
		Short: "Place a market order on the active challenge",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[2], err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			var (
				feed *dashboard.Feed
				wf   *trading.Workflow
			)
			opts := append(accountModules(), fx.Populate(&feed, &wf))
			return runApp(ctx, opts, func(ctx context.Context) error {
				if err := feed.RefreshAll(ctx); err != nil {
					logger.Warn("trade: %v", err)
				}

				v := feed.Hub().View()
				if value, ok := v.TradeValue(helper.NormSymbol(args[1]), qty); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Estimated value %s\n", value.StringFixed(2))
				}

				res, err := wf.Submit(ctx, models.Side(args[0]), args[1], qty)
				if err != nil {
					return err
				}
				if res.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dashboard.Summary(feed.Hub().View()))
				return nil
			})
		},
	}
}
