package session

import (
	"context"
	"fmt"

	"challenge_desk/internal/modules/config"
	platform "challenge_desk/internal/modules/platform/service"
	"challenge_desk/internal/modules/postgres"
	"challenge_desk/internal/modules/session/service"

	"go.uber.org/fx"
)

// NewTokenStore picks the persistence backend named by session.store.
func NewTokenStore(lc fx.Lifecycle, cfg *config.Config) (service.TokenStore, error) {
	switch cfg.Session.Store {
	case config.StorePostgres:
		tx, err := postgres.Connect(lc, cfg.Session.DBDSN)
		if err != nil {
			return nil, err
		}
		store := service.NewPgTokenStore(tx, cfg.Session.TokenKey)
		if err := store.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreFile:
		return service.NewFileTokenStore(cfg.Session.TokenPath, cfg.Session.TokenKey), nil
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
}

func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(
			NewTokenStore,
			func(c *platform.Client) service.Validator { return c },
			service.NewStore, // *service.Store
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Store) {
			lc.Append(fx.StopHook(s.Close))
		}),
	)
}

// Gate validates the persisted token during app start. Nothing that polls
// may start before it, so list it ahead of the dashboard module. It is a
// module of its own because fx runs module invokes before root ones.
func Gate() fx.Option {
	return fx.Module("session_gate",
		fx.Invoke(func(lc fx.Lifecycle, s *service.Store) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					s.Initialize(ctx)
					return nil
				},
			})
		}),
	)
}
