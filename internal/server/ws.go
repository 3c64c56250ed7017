package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/waveoff/internal/gesture"
	"github.com/ayusman/waveoff/internal/session"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// errorMessage is sent back when a single frame could not be processed.
type errorMessage struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// FrameHandler accepts base64 BGR frames over a websocket and streams the
// connection's transition events back. Every connection gets its own session.
type FrameHandler struct {
	sessions  *session.Manager
	readLimit int64
	logger    *slog.Logger
}

// NewFrameHandler creates a FrameHandler backed by sessions.
func NewFrameHandler(sessions *session.Manager, readLimit int64, logger *slog.Logger) *FrameHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameHandler{sessions: sessions, readLimit: readLimit, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FrameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	sess := h.sessions.Open(r.RemoteAddr)
	logger := h.logger.With("session_id", sess.ID())

	var writeMu sync.Mutex
	send := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}

	sess.Subscribe(func(ev gesture.Event) {
		if err := send(ev); err != nil {
			logger.Debug("event not delivered", "terminal", ev.Terminal(), "error", err)
		}
	})
	defer sess.Close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		_, err = sess.HandlePayload(r.Context(), string(data))
		if err == nil {
			continue
		}
		if errors.Is(err, session.ErrClosed) {
			return
		}

		msg := errorMessage{Error: err.Error(), Kind: session.KindExternal.String()}
		var fe *session.FrameError
		if errors.As(err, &fe) {
			msg.Kind = fe.Kind.String()
		}
		if err := send(msg); err != nil {
			logger.Debug("error not delivered", "error", err)
			return
		}
	}
}
