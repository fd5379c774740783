package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/engine/picking"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Heartbeat settings.
const (
	pingInterval = 10 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 64
)

// Message types on the movement stream.
const (
	msgHello    = "hello"
	msgMove     = "move"
	msgPosition = "position"
	msgPick     = "pick"
	msgTheme    = "theme"
	msgError    = "error"
)

// message is the single envelope for both directions.
type message struct {
	Type      string          `json:"type"`
	Session   string          `json:"session,omitempty"`
	Position  *math.Vec3      `json:"position,omitempty"`
	Radius    *float32        `json:"radius,omitempty"`
	Origin    *math.Vec3      `json:"origin,omitempty"`
	Direction *math.Vec3      `json:"direction,omitempty"`
	Target    *catalog.Target `json:"target,omitempty"`
	Theme     string          `json:"theme,omitempty"`
	Bounds    *math.Rect      `json:"bounds,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// session is one connected movement client.
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ss := &session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.sessions[ss.id] = ss
	n := len(s.sessions)
	s.mu.Unlock()
	log.Info("session opened", zap.String("session", ss.id), zap.Int("sessions", n))

	bounds := s.lobby.RoomBounds()
	s.queue(ss, message{Type: msgHello, Session: ss.id, Theme: s.lobby.Theme(), Bounds: &bounds})

	go s.writePump(ss)
	s.readPump(ss)
}

func (s *Server) readPump(ss *session) {
	defer func() {
		s.mu.Lock()
		delete(s.sessions, ss.id)
		s.mu.Unlock()
		close(ss.done)
		ss.conn.Close()
		log.Info("session closed", zap.String("session", ss.id))
	}()

	ss.conn.SetReadLimit(64 << 10)
	ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	ss.conn.SetPongHandler(func(string) error {
		return ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("session read error", zap.String("session", ss.id), zap.Error(err))
			}
			return
		}
		s.handleMessage(ss, data)
	}
}

func (s *Server) writePump(ss *session) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		ss.conn.Close()
	}()

	for {
		select {
		case data := <-ss.send:
			ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ss.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ss.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ss.done:
			ss.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) handleMessage(ss *session, data []byte) {
	var in message
	if err := json.Unmarshal(data, &in); err != nil {
		s.queue(ss, message{Type: msgError, Error: "malformed message"})
		return
	}

	switch in.Type {
	case msgMove:
		if in.Position == nil {
			s.queue(ss, message{Type: msgError, Error: "move requires position"})
			return
		}
		radius := s.radius
		if in.Radius != nil && *in.Radius >= 0 {
			radius = *in.Radius
		}
		p := s.lobby.Resolve(*in.Position, radius)
		s.queue(ss, message{Type: msgPosition, Position: &p})

	case msgPick:
		if in.Origin == nil || in.Direction == nil || in.Direction.Length() == 0 {
			s.queue(ss, message{Type: msgError, Error: "pick requires origin and direction"})
			return
		}
		out := message{Type: msgPick}
		if t, ok := s.lobby.Pick(picking.NewRay(*in.Origin, *in.Direction)); ok {
			out.Target = &t
		}
		s.queue(ss, out)

	default:
		s.queue(ss, message{Type: msgError, Error: "unknown message type " + in.Type})
	}
}

// queue encodes msg for one session. Slow sessions drop messages rather
// than stall the sender.
func (s *Server) queue(ss *session, msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("encode message", zap.Error(err))
		return
	}
	select {
	case ss.send <- data:
	default:
		log.Warn("session send buffer full", zap.String("session", ss.id), zap.String("type", msg.Type))
	}
}

func (s *Server) broadcast(msg message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ss := range s.sessions {
		s.queue(ss, msg)
	}
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ss := range s.sessions {
		ss.conn.Close()
	}
}
