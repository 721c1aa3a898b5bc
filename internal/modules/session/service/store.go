package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"challenge_desk/internal/models"
	"challenge_desk/pkg/logger"
)

var (
	// ErrNoSession is returned by anything that needs a token while anonymous.
	ErrNoSession = errors.New("session: not authenticated")
	// ErrInvalidTransition rejects a transition the state machine does not allow.
	ErrInvalidTransition = errors.New("session: invalid transition")
)

type State int

const (
	StateUninitialized State = iota
	StateAuthenticating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Snapshot is what listeners receive. It never carries the token.
type Snapshot struct {
	State  State
	User   *models.User
	Reason string
	Forced bool // the session was ended by Expire, not by the user
}

// Validator checks a token against the auth service.
type Validator interface {
	Me(ctx context.Context, token string) (models.User, error)
}

// Store owns the credential and the identity behind it. Only its methods
// change them.
type Store struct {
	tokens    TokenStore
	validator Validator
	now       func() time.Time

	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.RWMutex
	state     State
	user      *models.User
	token     string
	expiry    *time.Timer
	listeners []func(Snapshot)
}

func NewStore(tokens TokenStore, validator Validator) *Store {
	return &Store{
		tokens:    tokens,
		validator: validator,
		now:       time.Now,
		ready:     make(chan struct{}),
	}
}

// Ready is closed once Initialize has settled the startup state.
func (s *Store) Ready() <-chan struct{} { return s.ready }

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the current credential. ok is false unless authenticated.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return "", false
	}
	return s.token, true
}

func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated || s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked("")
}

// OnChange registers fn for every state transition. fn runs on the
// goroutine that caused the transition, outside the store lock.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Initialize validates the persisted token once per process. Calls after
// the first, including concurrent ones, return immediately.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		settled := s.state != StateAuthenticating
		s.mu.Unlock()
		if settled {
			s.readyOnce.Do(func() { close(s.ready) })
		}
		return
	}
	s.state = StateAuthenticating
	s.mu.Unlock()
	defer s.readyOnce.Do(func() { close(s.ready) })

	token, err := s.tokens.Load(ctx)
	if err != nil {
		logger.Warn("session: load persisted token: %v", err)
		s.settle(nil, "", "token store unreadable")
		return
	}
	if token == "" {
		s.settle(nil, "", "no persisted token")
		return
	}

	if exp, ok := expiresAt(token); ok && !exp.After(s.now()) {
		s.discard(ctx)
		s.settle(nil, "", "persisted token expired")
		return
	}

	user, err := s.validator.Me(ctx, token)
	if err != nil {
		// a cancelled ctx means the token was not validated, not that it was
		// rejected, so it stays on disk for the next run
		if ctx.Err() == nil {
			s.discard(ctx)
		}
		logger.Info("session: persisted token rejected: %v", err)
		s.settle(nil, "", "persisted token rejected")
		return
	}
	s.settle(&user, token, "restored")
}

// settle finishes Initialize unless a Logout already moved the store on.
func (s *Store) settle(user *models.User, token, reason string) {
	s.mu.Lock()
	if s.state != StateAuthenticating {
		s.mu.Unlock()
		return
	}
	if user != nil {
		s.setAuthenticatedLocked(*user, token)
	} else {
		s.state = StateAnonymous
	}
	snap, listeners := s.snapshotLocked(reason), s.listenersLocked()
	s.mu.Unlock()

	s.notify(snap, listeners)
}

// Login records a token the caller obtained from the auth service and
// persists it. Only valid from Anonymous.
func (s *Store) Login(ctx context.Context, user models.User, token string) error {
	if token == "" {
		return fmt.Errorf("session login: empty token")
	}

	s.mu.Lock()
	if s.state != StateAnonymous {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("login from %s: %w", st, ErrInvalidTransition)
	}
	s.setAuthenticatedLocked(user, token)
	snap, listeners := s.snapshotLocked("login"), s.listenersLocked()
	s.mu.Unlock()

	s.notify(snap, listeners)

	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	logger.Info("session: logged in as %s", user.DisplayName())
	return nil
}

// Logout moves any state to Anonymous and clears the persisted token.
// A no-op when already anonymous. Before Initialize it only clears storage,
// and Initialize then settles to Anonymous as usual.
func (s *Store) Logout(ctx context.Context) error {
	return s.end(ctx, "", "logout")
}

// Expire forces a logout, but only while token is still the current
// credential. It reports whether it did anything.
func (s *Store) Expire(ctx context.Context, token, reason string) bool {
	s.mu.RLock()
	current := s.state == StateAuthenticated && s.token == token
	s.mu.RUnlock()
	if !current || token == "" {
		return false
	}
	if err := s.end(ctx, token, reason); err != nil {
		logger.Warn("session: %s: %v", reason, err)
	}
	return true
}

func (s *Store) end(ctx context.Context, onlyToken, reason string) error {
	s.mu.Lock()
	if s.state == StateAnonymous || (onlyToken != "" && s.token != onlyToken) {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateUninitialized {
		s.mu.Unlock()
		if err := s.tokens.Clear(ctx); err != nil {
			return fmt.Errorf("clear persisted token: %w", err)
		}
		return nil
	}
	s.state = StateAnonymous
	s.user = nil
	s.token = ""
	s.stopExpiryLocked()
	snap, listeners := s.snapshotLocked(reason), s.listenersLocked()
	snap.Forced = onlyToken != ""
	s.mu.Unlock()

	if onlyToken != "" {
		logger.Warn("session: forced logout: %s", reason)
	}
	s.notify(snap, listeners)

	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear persisted token: %w", err)
	}
	return nil
}

// Close stops the expiry timer. The session itself is left as is.
func (s *Store) Close() {
	s.mu.Lock()
	s.stopExpiryLocked()
	s.mu.Unlock()
}

func (s *Store) discard(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		logger.Warn("session: clear persisted token: %v", err)
	}
}

func (s *Store) setAuthenticatedLocked(user models.User, token string) {
	s.state = StateAuthenticated
	s.user = &user
	s.token = token
	s.armExpiryLocked(token)
}

func (s *Store) armExpiryLocked(token string) {
	s.stopExpiryLocked()
	exp, ok := expiresAt(token)
	if !ok {
		return
	}
	s.expiry = time.AfterFunc(exp.Sub(s.now()), func() {
		s.Expire(context.Background(), token, "token expired")
	})
}

func (s *Store) stopExpiryLocked() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

func (s *Store) snapshotLocked(reason string) Snapshot {
	snap := Snapshot{State: s.state, Reason: reason}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Store) listenersLocked() []func(Snapshot) {
	return append([]func(Snapshot){}, s.listeners...)
}

func (s *Store) notify(snap Snapshot, listeners []func(Snapshot)) {
	for _, fn := range listeners {
		fn(snap)
	}
}
