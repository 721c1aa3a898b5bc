package platform

import (
	"challenge_desk/internal/modules/platform/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("platform",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
