package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"challenge_desk/internal/helper"
	"challenge_desk/internal/models"
	dashboard "challenge_desk/internal/modules/dashboard/service"
	platform "challenge_desk/internal/modules/platform/service"
	session "challenge_desk/internal/modules/session/service"
	"challenge_desk/internal/notify"
	"challenge_desk/pkg/logger"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

var ErrNoActiveChallenge = errors.New("no active challenge")

// ValidationError rejects an order before anything is sent.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, token string, order models.Order) (models.OrderResult, error)
}

// Account exposes the pollers an order invalidates and the challenge it
// trades against.
type Account interface {
	AccountPollers() []dashboard.Refresher
	ActiveChallenge() *models.Challenge
}

type Session interface {
	Token() (string, bool)
	Expire(ctx context.Context, token, reason string) bool
}

// Workflow submits one order at a time and then brings the account views
// up to date before handing the result back.
type Workflow struct {
	placer   OrderPlacer
	account  Account
	session  Session
	notifier notify.Notifier
	validate *validator.Validate
}

func NewWorkflow(placer OrderPlacer, account Account, sess Session, notifier notify.Notifier) *Workflow {
	return &Workflow{
		placer:   placer,
		account:  account,
		session:  sess,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Submit places a market order. Bad input and a missing challenge fail
// with *ValidationError and no request. A rejected order returns the
// server's error untouched. On success the challenge, positions and trades
// pollers have all refreshed by the time Submit returns.
func (w *Workflow) Submit(ctx context.Context, side models.Side, symbol string, quantity float64) (models.OrderResult, error) {
	order, err := w.check(side, symbol, quantity)
	if err != nil {
		return models.OrderResult{}, err
	}

	token, ok := w.session.Token()
	if !ok {
		return models.OrderResult{}, session.ErrNoSession
	}

	res, err := w.placer.PlaceOrder(ctx, token, order)
	if err != nil {
		if errors.Is(err, platform.ErrUnauthorized) {
			w.session.Expire(context.WithoutCancel(ctx), token, "order: "+err.Error())
		}
		logger.Warn("[TRADE] %s %g %s rejected: %v", order.Side, order.Quantity, order.Symbol, err)
		return models.OrderResult{}, err
	}
	logger.Info("[TRADE] %s %g %s accepted", order.Side, order.Quantity, order.Symbol)

	w.refresh(ctx)

	if w.notifier != nil {
		w.notifier.Send(confirmation(order, res))
	}
	return res, nil
}

func (w *Workflow) check(side models.Side, symbol string, quantity float64) (models.Order, error) {
	if !helper.Finite(quantity) {
		return models.Order{}, &ValidationError{Field: "quantity", Reason: "must be a finite number"}
	}
	if quantity <= 0 {
		return models.Order{}, &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	s, ok := helper.NormSide(string(side))
	if !ok {
		return models.Order{}, &ValidationError{Field: "side", Reason: fmt.Sprintf("%q is not buy or sell", side)}
	}

	order := models.Order{Side: s, Symbol: helper.NormSymbol(symbol), Quantity: quantity}
	if err := w.validate.Struct(order); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			fe := fields[0]
			return models.Order{}, &ValidationError{Field: strings.ToLower(fe.Field()), Reason: "failed " + fe.Tag(), Err: err}
		}
		return models.Order{}, &ValidationError{Field: "order", Reason: err.Error(), Err: err}
	}

	if w.account.ActiveChallenge() == nil {
		return models.Order{}, &ValidationError{Field: "challenge", Reason: "no active challenge", Err: ErrNoActiveChallenge}
	}
	return order, nil
}

// refresh runs every account poller at once and waits for all of them.
// A scheduled fetch sent before the order cannot stand in for the refresh.
// A failed refresh keeps that poller's previous value and is only logged.
func (w *Workflow) refresh(ctx context.Context) {
	var g errgroup.Group
	for _, p := range w.account.AccountPollers() {
		g.Go(func() error {
			if err := p.RefreshAfter(ctx); err != nil {
				logger.Warn("[TRADE] refresh %s after order: %v", p.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func confirmation(o models.Order, res models.OrderResult) string {
	msg := fmt.Sprintf("✅ %s %g %s", strings.ToUpper(string(o.Side)), o.Quantity, o.Symbol)
	if res.Trade != nil {
		msg += " @ " + res.Trade.EntryPrice.StringFixed(2)
		if res.Trade.Realized() {
			msg += " pnl " + res.Trade.Pnl.StringFixed(2)
		}
	}
	if res.Message != "" {
		msg += "\n" + res.Message
	}
	return msg
}
