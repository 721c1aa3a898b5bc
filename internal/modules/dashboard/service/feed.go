package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"challenge_desk/internal/models"
	platform "challenge_desk/internal/modules/platform/service"
	session "challenge_desk/internal/modules/session/service"
	"challenge_desk/internal/poller"
	"challenge_desk/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Source is the subset of the platform API the dashboard reads.
type Source interface {
	ActiveChallenge(ctx context.Context, token string) (*models.Challenge, error)
	Positions(ctx context.Context, token string) ([]models.Position, error)
	Trades(ctx context.Context, token string) ([]models.Trade, error)
	Prices(ctx context.Context) (models.Prices, error)
	Signals(ctx context.Context) (models.Signals, error)
}

// Session is what the feed needs from the session store.
type Session interface {
	Ready() <-chan struct{}
	Token() (string, bool)
	Expire(ctx context.Context, token, reason string) bool
	OnChange(fn func(session.Snapshot))
}

// Refresher is a poller that can be asked for an out-of-cycle fetch.
// RefreshAfter never settles for a fetch that was already running.
type Refresher interface {
	Name() string
	RefreshNow(ctx context.Context) error
	RefreshAfter(ctx context.Context) error
}

type Intervals struct {
	Prices  time.Duration
	Signals time.Duration
	Account time.Duration
}

// Feed runs every dashboard poller and routes results into the Hub. Market
// pollers run for the life of the feed; account pollers only while the
// session is authenticated.
type Feed struct {
	intervals Intervals
	src       Source
	session   Session
	hub       *Hub

	listenOnce sync.Once

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	prices  *poller.Poller[models.Prices]
	signals *poller.Poller[models.Signals]
	account *account
}

type account struct {
	alive       atomic.Bool
	challengeID atomic.Int64

	challenge *poller.Poller[*models.Challenge]
	positions *poller.Poller[[]models.Position]
	trades    *poller.Poller[[]models.Trade]
}

func NewFeed(intervals Intervals, src Source, sess Session, hub *Hub) *Feed {
	return &Feed{
		intervals: intervals,
		src:       src,
		session:   sess,
		hub:       hub,
	}
}

func (f *Feed) Hub() *Hub { return f.hub }

// Start waits for the session to settle, then starts polling. The pollers
// live until Stop; ctx only bounds the wait.
func (f *Feed) Start(ctx context.Context) error {
	select {
	case <-f.session.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	f.mu.Lock()
	if f.started || f.stopped {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.ctx, f.cancel = context.WithCancel(context.Background())

	f.prices = poller.New[models.Prices]("prices", f.src.Prices, f.intervals.Prices)
	f.prices.OnUpdate(func(s poller.Snapshot[models.Prices]) {
		f.hub.Update(func(in *Inputs) {
			if s.OK {
				in.Prices = s.Value
			}
			in.SetError(models.SourcePrices, s.Err)
		})
	})

	f.signals = poller.New[models.Signals]("signals", f.src.Signals, f.intervals.Signals)
	f.signals.OnUpdate(func(s poller.Snapshot[models.Signals]) {
		f.hub.Update(func(in *Inputs) {
			if s.OK {
				sig := s.Value
				in.Signals = &sig
			}
			in.SetError(models.SourceSignals, s.Err)
		})
	})

	f.prices.Run(f.ctx)
	f.signals.Run(f.ctx)
	f.mu.Unlock()

	f.listenOnce.Do(func() {
		f.session.OnChange(func(session.Snapshot) { f.sync() })
	})
	f.sync()

	logger.Info("[FEED] started prices=%s signals=%s account=%s",
		f.intervals.Prices, f.intervals.Signals, f.intervals.Account)
	return nil
}

// Stop cancels every poller. Safe to call more than once.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.stopped = true

	if f.account != nil {
		f.account.stop()
		f.account = nil
	}
	if f.prices != nil {
		f.prices.Stop()
		f.signals.Stop()
	}
	if f.cancel != nil {
		f.cancel()
	}
	logger.Info("[FEED] stopped")
}

// AccountPollers returns the challenge, positions and trades pollers, or nil
// while anonymous.
func (f *Feed) AccountPollers() []Refresher {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.account == nil {
		return nil
	}
	return []Refresher{f.account.challenge, f.account.positions, f.account.trades}
}

// RefreshAll fetches every running source out of cycle and waits for all
// of them. The first error is returned after the rest have finished.
func (f *Feed) RefreshAll(ctx context.Context) error {
	f.mu.Lock()
	if !f.started || f.stopped {
		f.mu.Unlock()
		return poller.ErrStopped
	}
	all := []Refresher{f.prices, f.signals}
	if f.account != nil {
		all = append(all, f.account.challenge, f.account.positions, f.account.trades)
	}
	f.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range all {
		g.Go(func() error {
			if err := p.RefreshNow(gctx); err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ActiveChallenge is the challenge in the current view when it is active.
func (f *Feed) ActiveChallenge() *models.Challenge {
	v := f.hub.View()
	if !v.Challenge.Active() {
		return nil
	}
	return v.Challenge
}

// sync starts or stops the account pollers to match the session.
func (f *Feed) sync() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started || f.stopped {
		return
	}

	_, authed := f.session.Token()
	switch {
	case authed && f.account == nil:
		f.account = f.startAccount()
		logger.Info("[FEED] account pollers started")
	case !authed && f.account != nil:
		f.account.stop()
		f.account = nil
		f.hub.ResetAccount()
		logger.Info("[FEED] account pollers stopped")
	}
}

func (f *Feed) startAccount() *account {
	acc := &account{}
	acc.alive.Store(true)

	acc.challenge = poller.New("challenge", withToken(f.session, "challenge", f.src.ActiveChallenge), f.intervals.Account)
	acc.positions = poller.New("positions", withToken(f.session, "positions", f.src.Positions), f.intervals.Account)
	acc.trades = poller.New("trades", withToken(f.session, "trades", f.src.Trades), f.intervals.Account)

	acc.challenge.OnUpdate(func(s poller.Snapshot[*models.Challenge]) {
		f.hub.Update(func(in *Inputs) {
			if !acc.alive.Load() {
				return
			}
			if s.OK {
				in.Challenge = s.Value
			}
			in.SetError(models.SourceChallenge, s.Err)
		})
		if s.OK && s.Err == nil {
			acc.followChallenge(f.ctx, s.Value, s.Version)
		}
	})
	acc.positions.OnUpdate(func(s poller.Snapshot[[]models.Position]) {
		f.hub.Update(func(in *Inputs) {
			if !acc.alive.Load() {
				return
			}
			if s.OK {
				in.Positions = s.Value
			}
			in.SetError(models.SourcePositions, s.Err)
		})
	})
	acc.trades.OnUpdate(func(s poller.Snapshot[[]models.Trade]) {
		f.hub.Update(func(in *Inputs) {
			if !acc.alive.Load() {
				return
			}
			if s.OK {
				in.Trades = s.Value
			}
			in.SetError(models.SourceTrades, s.Err)
		})
	})

	acc.challenge.Run(f.ctx)
	acc.positions.Run(f.ctx)
	acc.trades.Run(f.ctx)
	return acc
}

// followChallenge refreshes positions and trades when a different challenge
// becomes active.
func (a *account) followChallenge(ctx context.Context, ch *models.Challenge, version uint64) {
	var id int64
	if ch != nil {
		id = ch.ID
	}
	prev := a.challengeID.Swap(id)
	if id == 0 || prev == id || (prev == 0 && version == 1) {
		// positions and trades are on their own first fetch
		return
	}
	for _, p := range []Refresher{a.positions, a.trades} {
		go func(p Refresher) {
			if err := p.RefreshNow(ctx); err != nil && !errors.Is(err, poller.ErrStopped) && ctx.Err() == nil {
				logger.Warn("[FEED] %s refresh after challenge change: %v", p.Name(), err)
			}
		}(p)
	}
}

func (a *account) stop() {
	a.alive.Store(false)
	a.challenge.Stop()
	a.positions.Stop()
	a.trades.Stop()
}

// withToken reads the session token on every call, so a fetch after logout
// never carries a stale credential. A rejected token ends the session.
func withToken[T any](s Session, name string, fn func(ctx context.Context, token string) (T, error)) poller.FetchFunc[T] {
	return func(ctx context.Context) (T, error) {
		token, ok := s.Token()
		if !ok {
			var zero T
			return zero, session.ErrNoSession
		}
		v, err := fn(ctx, token)
		if errors.Is(err, platform.ErrUnauthorized) {
			s.Expire(context.WithoutCancel(ctx), token, name+": "+err.Error())
		}
		return v, err
	}
}
