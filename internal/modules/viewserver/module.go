package viewserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"challenge_desk/internal/modules/config"
	dashboard "challenge_desk/internal/modules/dashboard/service"
	session "challenge_desk/internal/modules/session/service"
	"challenge_desk/internal/modules/viewserver/service"
	"challenge_desk/pkg/logger"

	"go.uber.org/fx"
)

type Config struct {
	Enabled bool
	Addr    string // ":8080"
}

func NewConfig(cfg *config.Config) Config {
	return Config{Enabled: cfg.View.Enabled, Addr: cfg.View.Addr}
}

func NewServer(hub *dashboard.Hub, s *session.Store, state *service.State) *service.Server {
	return service.NewServer(hub, s, state)
}

func RunHTTP(lc fx.Lifecycle, cfg Config, state *service.State, server *service.Server) {
	if !cfg.Enabled {
		return
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("[VIEW] serve: %v", err)
				}
			}()
			state.SetReady(true)
			logger.Info("[VIEW] listening on %s", ln.Addr())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			server.Close()
			return srv.Shutdown(ctx)
		},
	})
}

// Module serves the dashboard locally. Include it after dashboard.Module so
// readiness flips only once the feed is running.
func Module() fx.Option {
	return fx.Module("viewserver",
		fx.Provide(
			service.NewState,
			NewConfig,
			NewServer,
		),
		fx.Invoke(RunHTTP),
	)
}
