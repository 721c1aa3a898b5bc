package service

import (
	"net/http"
	"sync"
	"time"

	"challenge_desk/internal/models"
	dashboard "challenge_desk/internal/modules/dashboard/service"
	session "challenge_desk/internal/modules/session/service"
	"challenge_desk/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Views is where the server reads dashboard snapshots from.
type Views interface {
	View() models.DashboardView
	Subscribe() (<-chan models.DashboardView, func())
}

type SessionState interface {
	State() session.State
}

// Server exposes health checks, the current dashboard and a websocket stream of
// dashboard snapshots.
type Server struct {
	views   Views
	session SessionState
	state   *State

	upgrader websocket.Upgrader

	closeOnce sync.Once
	done      chan struct{}
}

func NewServer(views Views, sess SessionState, state *State) *Server {
	return &Server{
		views:   views,
		session: sess,
		state:   state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// local dashboard, any page on the machine may read it
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

// Close ends every websocket stream. http.Server.Shutdown does not reach
// hijacked connections.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		v := s.views.View()
		resp := map[string]any{
			"ready":        s.state.Ready(),
			"session":      s.session.State().String(),
			"version":      v.Version,
			"hasChallenge": v.HasChallenge,
			"wsClients":    s.state.WSClients(),
			"uptimeSec":    int64(s.state.Uptime().Seconds()),
			"sourceErrors": v.SourceErrors,
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		v := s.views.View()
		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(dashboard.Summary(v) + "\n"))
			return
		}
		writeJSON(w, http.StatusOK, v)
	})

	mux.HandleFunc("/ws", s.serveWS)

	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[VIEW] ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	s.state.ClientConnected()
	defer s.state.ClientDisconnected()

	views, cancel := s.views.Subscribe()
	defer cancel()

	// the read loop only exists to see pongs and the close frame
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return
		case v := <-views:
			b, err := sonic.Marshal(v)
			if err != nil {
				logger.Error("[VIEW] encode view: %v", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
