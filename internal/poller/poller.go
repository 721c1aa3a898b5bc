// Package poller refreshes one named resource on a fixed interval and keeps
// the most recent successful value.
//
// A poller never runs two fetches of its resource at once. The scheduled
// tick and RefreshNow share a single in-flight call, and after any fetch
// completes the next tick is re-armed one interval later. RefreshAfter is
// for callers that just changed the resource: it never accepts a fetch that
// was already running when it was called.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"challenge_desk/pkg/logger"

	"golang.org/x/sync/singleflight"
)

var ErrStopped = errors.New("poller is not running")

type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is the observable state of a poller after a fetch.
type Snapshot[T any] struct {
	Value     T
	OK        bool // Value holds a successful result
	Err       error
	Version   uint64 // bumped on every success
	UpdatedAt time.Time
}

type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	firstRun time.Duration // delay before the first scheduled fetch

	startOnce sync.Once
	stopOnce  sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	reset     chan struct{}
	group     singleflight.Group

	mu        sync.RWMutex
	running   bool
	halted    bool
	started   uint64 // fetches begun so far
	latest    T
	ok        bool
	lastErr   error
	version   uint64
	updatedAt time.Time
	listeners []func(Snapshot[T])
}

// New builds a poller that does nothing until Start.
func New[T any](name string, fetch FetchFunc[T], interval time.Duration) *Poller[T] {
	if interval <= 0 {
		panic("poller: non-positive interval for " + name)
	}
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		done:     make(chan struct{}),
		reset:    make(chan struct{}, 1),
	}
}

// Start is New followed by Run.
func Start[T any](ctx context.Context, name string, fetch FetchFunc[T], interval time.Duration) *Poller[T] {
	p := New(name, fetch, interval)
	p.Run(ctx)
	return p
}

// Run fetches immediately and then every interval until ctx is done or Stop
// is called. Only the first call has any effect.
func (p *Poller[T]) Run(ctx context.Context) {
	p.startOnce.Do(func() {
		p.mu.Lock()
		if p.halted {
			// Stop got here first
			p.mu.Unlock()
			close(p.done)
			return
		}
		p.ctx, p.cancel = context.WithCancel(ctx)
		p.running = true
		p.mu.Unlock()

		go p.loop()
	})
}

func (p *Poller[T]) Name() string { return p.name }

// OnUpdate registers fn to run after every completed fetch, success or not.
// It runs on the fetching goroutine before RefreshNow returns.
func (p *Poller[T]) OnUpdate(fn func(Snapshot[T])) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Latest returns the last successful value; ok is false before the first success.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.ok
}

// LastError is the most recent failure, cleared by the next success.
func (p *Poller[T]) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// RefreshNow fetches out of cycle, or joins the fetch already in flight, and
// returns that fetch's error.
func (p *Poller[T]) RefreshNow(ctx context.Context) error {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		return ErrStopped
	}

	ch := p.group.DoChan(p.name, p.shared)
	select {
	case r := <-ch:
		p.rearm()
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped():
		return ErrStopped
	}
}

// RefreshAfter waits out any fetch already in flight and then returns the
// error of a fetch that began after the call. Use it when the caller has
// just changed the resource upstream.
func (p *Poller[T]) RefreshAfter(ctx context.Context) error {
	p.mu.RLock()
	running, mark := p.running, p.started
	p.mu.RUnlock()
	if !running {
		return ErrStopped
	}

	for {
		ch := p.group.DoChan(p.name, p.shared)
		select {
		case r := <-ch:
			p.rearm()
			seq, _ := r.Val.(uint64)
			if seq > mark || errors.Is(r.Err, ErrStopped) {
				return r.Err
			}
			// joined a fetch from before the call, go again
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopped():
			return ErrStopped
		}
	}
}

// Stop cancels the schedule and any fetch in flight. It does not wait, so it
// is safe to call from a listener. Results that land after Stop are dropped.
func (p *Poller[T]) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.running = false
		p.halted = true
		cancel := p.cancel
		p.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		logger.Debug("[POLL] %s stopped", p.name)
	})
}

// Done is closed once the schedule goroutine has exited, or right away when
// Stop came before Run.
func (p *Poller[T]) Done() <-chan struct{} { return p.done }

func (p *Poller[T]) stopped() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.ctx == nil {
		return nil
	}
	return p.ctx.Done()
}

func (p *Poller[T]) loop() {
	defer close(p.done)

	timer := time.NewTimer(p.firstRun)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.Stop()
			return
		case <-p.reset:
			timer.Reset(p.interval)
		case <-timer.C:
			// blocking here is what keeps ticks from stacking up
			_, _, _ = p.group.Do(p.name, p.shared)
			timer.Reset(p.interval)
		}
	}
}

func (p *Poller[T]) rearm() {
	select {
	case p.reset <- struct{}{}:
	default:
	}
}

// shared is the singleflight body. Its value is the fetch's sequence number.
func (p *Poller[T]) shared() (any, error) {
	p.mu.Lock()
	p.started++
	seq := p.started
	p.mu.Unlock()

	_, err := p.fetchOnce()
	return seq, err
}

func (p *Poller[T]) fetchOnce() (T, error) {
	v, err := p.fetch(p.ctx)

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		var zero T
		return zero, ErrStopped
	}
	if err != nil {
		p.lastErr = err
	} else {
		p.latest = v
		p.ok = true
		p.lastErr = nil
		p.version++
		p.updatedAt = time.Now()
	}
	snap := p.snapshotLocked()
	listeners := append([]func(Snapshot[T]){}, p.listeners...)
	p.mu.Unlock()

	if err != nil {
		logger.Warn("[POLL] %s fetch failed: %v", p.name, err)
	}
	for _, fn := range listeners {
		fn(snap)
	}
	return v, err
}

func (p *Poller[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Value:     p.latest,
		OK:        p.ok,
		Err:       p.lastErr,
		Version:   p.version,
		UpdatedAt: p.updatedAt,
	}
}
