package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"challenge_desk/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers short human-readable notices. Callers send from
// listeners and request paths, so the one New provides never blocks.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// StatusFunc renders a short account summary for the /status command.
type StatusFunc func() string

// StatusSetter is implemented by notifiers that can answer /status.
type StatusSetter interface {
	SetStatus(fn StatusFunc)
}

// Async hands every notice to its own goroutine so callers never wait on
// the network. Wait blocks until all of them are out.
type Async struct {
	next Notifier
	wg   sync.WaitGroup
}

func NewAsync(next Notifier) *Async { return &Async{next: next} }

func (a *Async) Send(msg string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.next.Send(msg)
	}()
}

func (a *Async) Sendf(format string, args ...any) { a.Send(fmt.Sprintf(format, args...)) }

// SetStatus forwards to the wrapped notifier when it supports /status.
func (a *Async) SetStatus(fn StatusFunc) {
	if s, ok := a.next.(StatusSetter); ok {
		s.SetStatus(fn)
	}
}

// Wait returns once every pending notice has been sent, or with ctx's error.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Telegram pushes notices to one chat and answers /status there.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu     sync.Mutex
	status StatusFunc
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("telegram send: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// SetStatus installs the /status responder.
func (t *Telegram) SetStatus(fn StatusFunc) {
	t.mu.Lock()
	t.status = fn
	t.mu.Unlock()
}

// Start long-polls for commands until ctx is done.
func (t *Telegram) Start(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				msg := upd.Message
				if msg == nil || msg.Chat == nil || msg.Chat.ID != t.chatID || !msg.IsCommand() {
					continue
				}
				switch msg.Command() {
				case "status":
					t.mu.Lock()
					fn := t.status
					t.mu.Unlock()
					if fn == nil {
						t.Send("📭 Dashboard is not running")
						continue
					}
					t.Send(fn())
				}
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// Stdout prints every notice. Used when no bot token is configured.
type Stdout struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStdout() *Stdout { return &Stdout{w: os.Stdout} }

func NewWriter(w io.Writer) *Stdout { return &Stdout{w: w} }

func (s *Stdout) Send(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, msg)
}

func (s *Stdout) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }
