package trading

import (
	dashboard "challenge_desk/internal/modules/dashboard/service"
	platform "challenge_desk/internal/modules/platform/service"
	session "challenge_desk/internal/modules/session/service"
	"challenge_desk/internal/modules/trading/service"
	"challenge_desk/internal/notify"

	"go.uber.org/fx"
)

func NewWorkflow(c *platform.Client, feed *dashboard.Feed, s *session.Store, n notify.Notifier) *service.Workflow {
	return service.NewWorkflow(c, feed, s, n)
}

func Module() fx.Option {
	return fx.Module("trading",
		fx.Provide(
			NewWorkflow, // *service.Workflow
		),
	)
}
