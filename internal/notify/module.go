package notify

import (
	"context"

	"challenge_desk/internal/modules/config"
	"challenge_desk/pkg/logger"

	"go.uber.org/fx"
)

// New returns the Telegram notifier when a bot token and chat are
// configured, stdout otherwise. Sends never block the caller, and app stop
// waits for the ones still in flight.
func New(lc fx.Lifecycle, cfg *config.Config) Notifier {
	var (
		next Notifier = NewStdout()
		tg   *Telegram
	)
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		t, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("telegram disabled: %v", err)
		} else {
			next, tg = t, t
		}
	}
	async := NewAsync(next)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tg.Start(ctx)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			err := async.Wait(stopCtx)
			if err != nil {
				logger.Warn("notify: pending notices dropped: %v", err)
			}
			cancel()
			tg.Stop()
			return nil
		},
	})
	return async
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(New),
	)
}
