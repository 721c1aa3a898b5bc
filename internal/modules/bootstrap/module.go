package bootstrap

import (
	"fmt"

	"challenge_desk/internal/modules/config"
	"challenge_desk/pkg/logger"
	"challenge_desk/pkg/tracing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// NewFxLogger initialises pkg/logger from the config and hands fx its own
// event logger. Pass it to fx.WithLogger at the top level of the app: fx
// builds it before any invoke runs, so logging is ready everywhere.
func NewFxLogger(cfg *config.Config) fxevent.Logger {
	logger.SetServiceName(cfg.Service.Name)
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		// fall back so the helpers never panic
		_ = logger.Init("info", cfg.Log.Development)
		logger.Warn("[BOOT] %v, using info", err)
	}
	if !cfg.Log.Development {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: logger.Zap()}
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	tracing.SetServiceName(cfg.Service.Name)
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	lc.Append(fx.StopHook(closer))
	if cfg.Tracing.Enabled {
		logger.Info("[BOOT] tracing to %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
	}
	return nil
}

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Invoke(initTracing),
	)
}
