package config

import (
	"challenge_desk/internal/models"

	"go.uber.org/fx"
)

// NewLimits exposes the challenge rules on their own for consumers that need
// nothing else from the config.
func NewLimits(cfg *Config) models.Limits {
	return models.Limits{
		ProfitTargetPct:   cfg.Limits.ProfitTargetPct,
		DailyLossLimitPct: cfg.Limits.DailyLossLimitPct,
	}
}

func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
			NewLimits,
		),
	)
}
