package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsClients atomic.Int64
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) ClientConnected()    { s.wsClients.Add(1) }
func (s *State) ClientDisconnected() { s.wsClients.Add(-1) }
func (s *State) WSClients() int64    { return s.wsClients.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
