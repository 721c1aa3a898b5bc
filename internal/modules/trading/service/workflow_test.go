package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"challenge_desk/internal/models"
	dashboard "challenge_desk/internal/modules/dashboard/service"
	platform "challenge_desk/internal/modules/platform/service"
	session "challenge_desk/internal/modules/session/service"
	"challenge_desk/internal/notify"
	"challenge_desk/internal/poller"
	"challenge_desk/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}

type placerMock struct{ mock.Mock }

func (m *placerMock) PlaceOrder(ctx context.Context, token string, order models.Order) (models.OrderResult, error) {
	args := m.Called(ctx, token, order)
	return args.Get(0).(models.OrderResult), args.Error(1)
}

type refresher struct {
	name  string
	delay time.Duration
	err   error
	done  atomic.Bool
	calls atomic.Int32
}

func (r *refresher) Name() string { return r.name }

func (r *refresher) RefreshNow(ctx context.Context) error {
	r.calls.Add(1)
	time.Sleep(r.delay)
	r.done.Store(true)
	return r.err
}

func (r *refresher) RefreshAfter(ctx context.Context) error { return r.RefreshNow(ctx) }

type fakeAccount struct {
	challenge *models.Challenge
	pollers   []*refresher
	live      []dashboard.Refresher
}

func (a *fakeAccount) AccountPollers() []dashboard.Refresher {
	out := make([]dashboard.Refresher, 0, len(a.pollers)+len(a.live))
	for _, p := range a.pollers {
		out = append(out, p)
	}
	return append(out, a.live...)
}

func (a *fakeAccount) ActiveChallenge() *models.Challenge { return a.challenge }

type fakeSession struct {
	mu      sync.Mutex
	token   string
	expired []string
}

func (s *fakeSession) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *fakeSession) Expire(_ context.Context, token, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	s.token = ""
	s.expired = append(s.expired, reason)
	return true
}

type fixture struct {
	placer  *placerMock
	account *fakeAccount
	session *fakeSession
	wf      *Workflow
}

func newFixture() *fixture {
	f := &fixture{
		placer:  &placerMock{},
		account: &fakeAccount{
			challenge: &models.Challenge{ID: 1, Status: models.ChallengeActive},
			pollers: []*refresher{
				{name: "challenge", delay: 30 * time.Millisecond},
				{name: "positions", delay: 10 * time.Millisecond},
				{name: "trades", delay: 20 * time.Millisecond},
			},
		},
		session: &fakeSession{token: "tok"},
	}
	f.wf = NewWorkflow(f.placer, f.account, f.session, nil)
	return f
}

func (f *fixture) refreshCalls() int {
	n := 0
	for _, p := range f.account.pollers {
		n += int(p.calls.Load())
	}
	return n
}

func TestSubmitRejectsBadQuantityWithoutNetwork(t *testing.T) {
	for name, qty := range map[string]float64{
		"zero":     0,
		"negative": -1,
		"nan":      math.NaN(),
		"inf":      math.Inf(1),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			_, err := f.wf.Submit(context.Background(), models.SideBuy, "AAPL", qty)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "quantity", ve.Field)
			f.placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
			assert.Zero(t, f.refreshCalls())
		})
	}
}

func TestSubmitRejectsBadSideAndSymbol(t *testing.T) {
	f := newFixture()

	_, err := f.wf.Submit(context.Background(), models.Side("hold"), "AAPL", 1)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "side", ve.Field)

	_, err = f.wf.Submit(context.Background(), models.SideSell, "   ", 1)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "symbol", ve.Field)

	f.placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitNeedsActiveChallenge(t *testing.T) {
	f := newFixture()
	f.account.challenge = nil

	_, err := f.wf.Submit(context.Background(), models.SideBuy, "AAPL", 1)
	assert.ErrorIs(t, err, ErrNoActiveChallenge)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	f.placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitNeedsSession(t *testing.T) {
	f := newFixture()
	f.session.token = ""

	_, err := f.wf.Submit(context.Background(), models.SideBuy, "AAPL", 1)
	assert.ErrorIs(t, err, session.ErrNoSession)
	f.placer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRefreshesBeforeReturning(t *testing.T) {
	f := newFixture()
	want := models.OrderResult{
		Message: "Trade executed successfully",
		Trade:   &models.Trade{ID: 9, Symbol: "AAPL", Side: models.SideBuy, EntryPrice: decimal.NewFromInt(190)},
	}
	f.placer.On("PlaceOrder", mock.Anything, "tok",
		models.Order{Side: models.SideBuy, Symbol: "AAPL", Quantity: 2}).Return(want, nil).Once()

	got, err := f.wf.Submit(context.Background(), models.Side(" BUY "), " aapl ", 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	for _, p := range f.account.pollers {
		assert.True(t, p.done.Load(), p.name)
		assert.Equal(t, int32(1), p.calls.Load(), p.name)
	}
	f.placer.AssertExpectations(t)
}

func TestSubmitIgnoresRefreshFailures(t *testing.T) {
	f := newFixture()
	f.account.pollers[1].err = errors.New("connection reset")
	f.placer.On("PlaceOrder", mock.Anything, "tok", mock.Anything).Return(models.OrderResult{}, nil).Once()

	_, err := f.wf.Submit(context.Background(), models.SideSell, "MSFT", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, f.refreshCalls())
}

func TestSubmitBusinessErrorIsVerbatim(t *testing.T) {
	f := newFixture()
	rejection := errors.New("Insufficient balance")
	f.placer.On("PlaceOrder", mock.Anything, "tok", mock.Anything).Return(models.OrderResult{}, rejection).Once()

	_, err := f.wf.Submit(context.Background(), models.SideBuy, "AAPL", 1000)
	require.Error(t, err)
	assert.Equal(t, "Insufficient balance", err.Error())
	assert.Zero(t, f.refreshCalls())
	assert.Empty(t, f.session.expired)

	f.placer.AssertNumberOfCalls(t, "PlaceOrder", 1)
}

func TestSubmitUnauthorizedEndsSession(t *testing.T) {
	f := newFixture()
	f.placer.On("PlaceOrder", mock.Anything, "tok", mock.Anything).
		Return(models.OrderResult{}, fmt.Errorf("order: %w", platform.ErrUnauthorized)).Once()

	_, err := f.wf.Submit(context.Background(), models.SideBuy, "AAPL", 1)
	assert.ErrorIs(t, err, platform.ErrUnauthorized)
	assert.Len(t, f.session.expired, 1)
	assert.Zero(t, f.refreshCalls())
}

func TestSubmitDoesNotSettleForPreTradeFetch(t *testing.T) {
	var open atomic.Int32
	reading := make(chan struct{}, 4)
	positions := poller.Start[int](context.Background(), "positions", func(context.Context) (int, error) {
		n := open.Load()
		reading <- struct{}{}
		time.Sleep(150 * time.Millisecond)
		return int(n), nil
	}, time.Hour)
	defer positions.Stop()

	<-reading // scheduled fetch is out with the pre-trade state

	f := newFixture()
	f.account.pollers = nil
	f.account.live = []dashboard.Refresher{positions}
	f.placer.On("PlaceOrder", mock.Anything, "tok", mock.Anything).
		Run(func(mock.Arguments) { open.Store(1) }).
		Return(models.OrderResult{}, nil).Once()

	_, err := f.wf.Submit(context.Background(), models.SideBuy, "AAPL", 1)
	require.NoError(t, err)

	v, ok := positions.Latest()
	require.True(t, ok)
	assert.Equal(t, 1, v, "positions must reflect the accepted order")
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNotifier) Send(msg string) {
	time.Sleep(30 * time.Millisecond)
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recordingNotifier) Sendf(format string, args ...any) { r.Send(fmt.Sprintf(format, args...)) }

func TestSubmitConfirmationSurvivesShutdown(t *testing.T) {
	rec := &recordingNotifier{}
	async := notify.NewAsync(rec)

	f := newFixture()
	f.wf = NewWorkflow(f.placer, f.account, f.session, async)
	f.placer.On("PlaceOrder", mock.Anything, "tok", mock.Anything).Return(models.OrderResult{}, nil).Once()

	_, err := f.wf.Submit(context.Background(), models.SideBuy, "AAPL", 2)
	require.NoError(t, err)
	require.NoError(t, async.Wait(context.Background()))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], "BUY 2 AAPL")
}
