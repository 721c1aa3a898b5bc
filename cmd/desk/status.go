package main

import (
	"context"
	"fmt"
	"io"

	"challenge_desk/internal/models"
	dashboard "challenge_desk/internal/modules/dashboard/service"
	"challenge_desk/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gopkg.in/yaml.v2"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Fetch every source once and print the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q: want text, json or yaml", format)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			var feed *dashboard.Feed
			opts := append(accountModules(), fx.Populate(&feed))
			return runApp(ctx, opts, func(ctx context.Context) error {
				// a failing source still leaves a useful view
				if err := feed.RefreshAll(ctx); err != nil {
					logger.Warn("status: %v", err)
				}
				return render(cmd.OutOrStdout(), feed.Hub().View(), format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

func render(w io.Writer, v models.DashboardView, format string) error {
	switch format {
	case formatJSON:
		b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatYAML:
		b, err := toYAML(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	_, err := fmt.Fprintln(w, dashboard.Summary(v))
	return err
}

// toYAML goes through JSON so the keys and value formats match the json
// output; MapSlice keeps the key order.
func toYAML(v any) ([]byte, error) {
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
