package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/broadcast"

	"github.com/gorilla/websocket"
)

type Subscriber interface {
	Subscribe() (*broadcast.Subscription, error)
	Unsubscribe(sub *broadcast.Subscription)
}

type Server struct {
	upgrader websocket.Upgrader
	svc      Subscriber
	log      *slog.Logger

	pingEvery time.Duration
	writeWait time.Duration
}

func NewServer(svc Subscriber, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
		writeWait: 5 * time.Second,
	}
}

// SetPingInterval overrides the keepalive period.
func (s *Server) SetPingInterval(d time.Duration) {
	if d > 0 {
		s.pingEvery = d
	}
}

// HandleWS serves GET /ws/whiteboard?view=board|full. The first message is
// always the full session; later ones carry the board unless view=full.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	full := r.URL.Query().Get("view") == "full"

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub, err := s.svc.Subscribe()
	if err != nil {
		s.log.Warn("ws subscribe failed", "err", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"),
			time.Now().Add(s.writeWait))
		return
	}
	defer s.svc.Unsubscribe(sub)

	log := s.log.With("subscriber", sub.ID())
	log.Debug("ws viewer connected", "remote", r.RemoteAddr)

	gone := make(chan struct{})
	go s.readLoop(conn, gone)
	s.writeLoop(conn, sub, full, gone, log)
	log.Debug("ws viewer disconnected")
}

// readLoop discards client frames and keeps the read deadline alive on pong.
func (s *Server) readLoop(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, sub *broadcast.Subscription, full bool, gone <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	first := true
	for {
		select {
		case snap := <-sub.C():
			msg := whiteboardMessage(snap)
			if first || full {
				msg = sessionMessage(snap)
			}
			first = false
			if err := s.send(conn, msg); err != nil {
				log.Debug("ws write failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeWait)); err != nil {
				return
			}
		case <-sub.Done():
			log.Warn("ws subscription closed by broadcaster")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow, reconnect to resync"),
				time.Now().Add(s.writeWait))
			return
		case <-gone:
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	return conn.WriteJSON(msg)
}
