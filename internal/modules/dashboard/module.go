package dashboard

import (
	"context"

	"challenge_desk/internal/models"
	"challenge_desk/internal/modules/config"
	"challenge_desk/internal/modules/dashboard/service"
	platform "challenge_desk/internal/modules/platform/service"
	session "challenge_desk/internal/modules/session/service"
	"challenge_desk/internal/notify"

	"go.uber.org/fx"
)

func NewIntervals(cfg *config.Config) service.Intervals {
	return service.Intervals{
		Prices:  cfg.Polling.Prices,
		Signals: cfg.Polling.Signals,
		Account: cfg.Polling.Account,
	}
}

func NewFeed(iv service.Intervals, c *platform.Client, s *session.Store, hub *service.Hub) *service.Feed {
	return service.NewFeed(iv, c, s, hub)
}

func NewHub(limits models.Limits, n notify.Notifier) *service.Hub {
	return service.NewHub(limits, n)
}

// Module provides the Hub and the Feed. The feed starts after the session
// gate, so session.Gate must come first in the app.
func Module() fx.Option {
	return fx.Module("dashboard",
		fx.Provide(
			NewIntervals,
			NewHub,  // *service.Hub
			NewFeed, // *service.Feed
		),
		fx.Invoke(func(lc fx.Lifecycle, feed *service.Feed, s *session.Store, n notify.Notifier) {
			if st, ok := n.(notify.StatusSetter); ok {
				st.SetStatus(func() string { return service.Summary(feed.Hub().View()) })
			}
			s.OnChange(func(snap session.Snapshot) {
				if snap.Forced {
					n.Send("🔒 Signed out: " + snap.Reason)
				}
			})
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return feed.Start(ctx)
				},
				OnStop: func(ctx context.Context) error {
					feed.Stop()
					return nil
				},
			})
		}),
	)
}
