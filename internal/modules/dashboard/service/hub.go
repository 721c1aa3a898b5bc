package service

import (
	"sync"
	"sync/atomic"
	"time"

	"challenge_desk/internal/models"
	"challenge_desk/internal/notify"
)

// Hub holds the dashboard inputs and the view derived from them. Every
// change recomputes the whole view and swaps it in at once.
type Hub struct {
	limits   models.Limits
	notifier notify.Notifier
	now      func() time.Time

	mu      sync.Mutex
	in      Inputs
	version uint64
	subs    map[int]chan models.DashboardView
	nextSub int

	view atomic.Pointer[models.DashboardView]
}

func NewHub(limits models.Limits, notifier notify.Notifier) *Hub {
	h := &Hub{
		limits:   limits,
		notifier: notifier,
		now:      time.Now,
		subs:     make(map[int]chan models.DashboardView),
	}
	v := Compute(Inputs{}, limits)
	h.view.Store(&v)
	return h
}

// View returns the current snapshot without locking.
func (h *Hub) View() models.DashboardView {
	return *h.view.Load()
}

// Subscribe delivers every new view. A slow reader only ever misses
// intermediate views, never the latest one.
func (h *Hub) Subscribe() (<-chan models.DashboardView, func()) {
	ch := make(chan models.DashboardView, 1)

	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	ch <- *h.view.Load()
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Update applies fn to the inputs and publishes the recomputed view.
func (h *Hub) Update(fn func(in *Inputs)) models.DashboardView {
	return h.update(fn, true)
}

// ResetAccount drops everything that belongs to the signed-in user.
func (h *Hub) ResetAccount() models.DashboardView {
	return h.update(func(in *Inputs) {
		in.Challenge = nil
		in.Positions = nil
		in.Trades = nil
		for _, src := range []models.Source{models.SourceChallenge, models.SourcePositions, models.SourceTrades} {
			delete(in.Errors, src)
		}
	}, false)
}

func (h *Hub) update(fn func(in *Inputs), announce bool) models.DashboardView {
	h.mu.Lock()
	prev := *h.view.Load()
	fn(&h.in)

	h.version++
	next := Compute(h.in, h.limits)
	next.Version = h.version
	next.UpdatedAt = h.now()
	h.view.Store(&next)

	for _, ch := range h.subs {
		publish(ch, next)
	}
	h.mu.Unlock()

	if announce && prev.HasChallenge && !next.HasChallenge && h.notifier != nil {
		h.notifier.Send(EndedNotice(prev))
	}
	return next
}

// SetError records or clears the last error of src.
func (in *Inputs) SetError(src models.Source, err error) {
	if err == nil {
		delete(in.Errors, src)
		return
	}
	if in.Errors == nil {
		in.Errors = make(map[models.Source]string)
	}
	in.Errors[src] = err.Error()
}

func publish(ch chan models.DashboardView, v models.DashboardView) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
