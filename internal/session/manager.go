package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/waveoff/internal/capture"
	"github.com/ayusman/waveoff/internal/detector"
	"github.com/ayusman/waveoff/internal/gesture"
)

// Recorder journals session lifecycles and their transition events.
type Recorder interface {
	OpenSession(id, remoteAddr string, startedAt time.Time) error
	RecordTransition(sessionID string, ev gesture.Event, at time.Time) error
	CloseSession(id string, endedAt time.Time, frames, failures int) error
}

// ListenerFactory builds a listener bound to one session.
type ListenerFactory func(sessionID string) gesture.Listener

// Services are the shared, stateless capabilities every session calls into.
type Services struct {
	Detector     detector.Detector
	HandSign     gesture.Classifier
	PointHistory gesture.Classifier
	Labels       gesture.Labeler
}

// Options configure a Manager.
type Options struct {
	Frame    capture.FrameSize
	Mirror   bool
	Recorder Recorder
	// Listeners are subscribed to every new session after the recorder.
	Listeners []ListenerFactory
	Logger    *slog.Logger
	Now       func() time.Time
}

// Manager opens sessions and tracks the ones still running.
type Manager struct {
	services  Services
	frame     capture.FrameSize
	mirror    bool
	recorder  Recorder
	listeners []ListenerFactory
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager validates services and returns a Manager.
func NewManager(services Services, opts Options) (*Manager, error) {
	if services.Detector == nil {
		return nil, errors.New("session: detector is required")
	}
	if services.HandSign == nil || services.PointHistory == nil {
		return nil, errors.New("session: both classifiers are required")
	}
	if services.Labels == nil {
		return nil, errors.New("session: hand sign labels are required")
	}
	if opts.Frame.Width <= 0 || opts.Frame.Height <= 0 {
		opts.Frame = capture.FrameSize{Width: capture.DefaultWidth, Height: capture.DefaultHeight}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		services:  services,
		frame:     opts.Frame,
		mirror:    opts.Mirror,
		recorder:  opts.Recorder,
		listeners: opts.Listeners,
		logger:    opts.Logger.With("component", "session"),
		now:       opts.Now,
		sessions:  make(map[string]*Session),
	}, nil
}

// Open creates a session with empty state for a new connection.
// Journal failures are logged and never block the session.
func (m *Manager) Open(remoteAddr string) *Session {
	id := uuid.NewString()
	startedAt := m.now()

	s := &Session{
		id:         id,
		remoteAddr: remoteAddr,
		startedAt:  startedAt,
		manager:    m,
		logger:     m.logger.With("session_id", id),
		stabilizer: gesture.NewStabilizer(m.services.HandSign, m.services.PointHistory, m.services.Labels),
		notifier:   gesture.NewNotifier(),
	}

	if m.recorder != nil {
		if err := m.recorder.OpenSession(id, remoteAddr, startedAt); err != nil {
			s.logger.Warn("journal open failed", "error", err)
		}
		s.notifier.Subscribe(func(ev gesture.Event) {
			if err := m.recorder.RecordTransition(id, ev, m.now()); err != nil {
				s.logger.Warn("journal transition failed", "error", err)
			}
		})
	}
	for _, factory := range m.listeners {
		s.notifier.Subscribe(factory(id))
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	s.logger.Info("session opened", "remote_addr", remoteAddr)
	return s
}

// Get returns a running session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Active returns snapshots of running sessions, oldest first.
func (m *Manager) Active() []Info {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// Len returns the number of running sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every running session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) release(s *Session, frames, failures int) {
	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()

	if m.recorder != nil {
		if err := m.recorder.CloseSession(s.id, m.now(), frames, failures); err != nil {
			s.logger.Warn("journal close failed", "error", err)
		}
	}
}
