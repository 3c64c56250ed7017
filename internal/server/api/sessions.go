package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/waveoff/internal/session"
	"github.com/ayusman/waveoff/internal/store"
)

// DefaultListLimit caps GET /api/sessions when no limit is given.
const DefaultListLimit = 50

// ActiveLister reports the sessions currently attached to a connection.
type ActiveLister interface {
	Active() []session.Info
}

// SessionHandler serves the journaled sessions and their transitions.
type SessionHandler struct {
	store  *store.Store
	active ActiveLister
}

// NewSessionHandler creates a SessionHandler. active may be nil when no live
// pipeline runs in this process.
func NewSessionHandler(s *store.Store, active ActiveLister) *SessionHandler {
	return &SessionHandler{store: s, active: active}
}

// ServeHTTP routes:
//
//	GET    /api/sessions
//	GET    /api/sessions/active
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/transitions
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	if path == "active" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.listActive(w)
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.get(w, id)
	case rest == "" && r.Method == http.MethodDelete:
		h.delete(w, id)
	case rest == "transitions" && r.Method == http.MethodGet:
		h.transitions(w, id)
	case rest == "" || rest == "transitions":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

type activeSessionsResponse struct {
	Sessions []session.Info `json:"sessions"`
}

type transitionsResponse struct {
	SessionID   string              `json:"session_id"`
	Transitions []*store.Transition `json:"transitions"`
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

func (h *SessionHandler) listActive(w http.ResponseWriter) {
	infos := []session.Info{}
	if h.active != nil {
		infos = append(infos, h.active.Active()...)
	}
	writeJSON(w, http.StatusOK, activeSessionsResponse{Sessions: infos})
}

func (h *SessionHandler) get(w http.ResponseWriter, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) delete(w http.ResponseWriter, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	if sess.Active() {
		writeError(w, http.StatusConflict, "Session is still running")
		return
	}

	if err := h.store.Sessions().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) transitions(w http.ResponseWriter, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	transitions, err := h.store.Transitions().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transitions")
		return
	}
	if transitions == nil {
		transitions = []*store.Transition{}
	}
	writeJSON(w, http.StatusOK, transitionsResponse{SessionID: id, Transitions: transitions})
}
