package main

import (
	"context"
	"time"

	"challenge_desk/internal/modules/bootstrap"
	"challenge_desk/internal/modules/config"
	"challenge_desk/internal/modules/dashboard"
	"challenge_desk/internal/modules/platform"
	"challenge_desk/internal/modules/session"
	"challenge_desk/internal/modules/trading"
	"challenge_desk/internal/modules/viewserver"
	"challenge_desk/internal/notify"

	"go.uber.org/fx"
)

const stopTimeout = 10 * time.Second

func baseModules() []fx.Option {
	return []fx.Option{
		fx.WithLogger(bootstrap.NewFxLogger),
		config.Module(),
		bootstrap.Module(),
		platform.Module(),
		session.Module(),
	}
}

// accountModules is everything needed to read and trade the account. The
// session gate has to precede the dashboard.
func accountModules() []fx.Option {
	return append(baseModules(),
		notify.Module(),
		session.Gate(),
		dashboard.Module(),
		trading.Module(),
	)
}

func watchModules() []fx.Option {
	return append(accountModules(), viewserver.Module())
}

// runApp starts an app built from opts, runs fn and stops the app again.
// Use fx.Populate in opts to get at the components fn needs.
func runApp(ctx context.Context, opts []fx.Option, fn func(ctx context.Context) error) (err error) {
	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	return fn(ctx)
}
