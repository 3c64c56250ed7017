package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/waveoff/internal/capture"
	"github.com/ayusman/waveoff/internal/classifier"
	"github.com/ayusman/waveoff/internal/detector"
	"github.com/ayusman/waveoff/internal/gesture"
	"github.com/ayusman/waveoff/internal/labels"
	"github.com/ayusman/waveoff/internal/session"
	"github.com/ayusman/waveoff/internal/store"
)

var testFrame = capture.FrameSize{Width: 8, Height: 6}

// scripted returns ids in order and repeats the last one.
func scripted(ids ...int) gesture.Classifier {
	var mu sync.Mutex
	calls := 0
	return gesture.ClassifierFunc(func(ctx context.Context, features []float64) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		i := calls
		if i >= len(ids) {
			i = len(ids) - 1
		}
		calls++
		return ids[i], nil
	})
}

type harness struct {
	store    *store.Store
	sessions *session.Manager
	detector *detector.MockDetector
	server   *httptest.Server
}

func newHarness(t *testing.T, handSign gesture.Classifier) *harness {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	sessions, err := session.NewManager(session.Services{
		Detector:     det,
		HandSign:     handSign,
		PointHistory: classifier.Fixed(gesture.GestureStop),
		Labels:       labels.HandSigns(),
	}, session.Options{
		Frame:    testFrame,
		Mirror:   true,
		Recorder: store.NewJournal(st),
	})
	if err != nil {
		t.Fatalf("session.NewManager: %v", err)
	}

	ts := httptest.NewServer(New(Config{Store: st, Sessions: sessions}))
	t.Cleanup(ts.Close)

	return &harness{store: st, sessions: sessions, detector: det, server: ts}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/opencv"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func frame() string {
	return base64.StdEncoding.EncodeToString(make([]byte, testFrame.Bytes()))
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readInto(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

// waitClosed polls the journal until the session has ended.
func (h *harness) waitClosed(t *testing.T) *store.Session {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		sessions, err := h.store.Sessions().List(1)
		if err != nil {
			t.Fatalf("list sessions: %v", err)
		}
		if len(sessions) == 1 && !sessions[0].Active() {
			return sessions[0]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session was not closed in time")
	return nil
}

func TestFrameSocket_Workflow(t *testing.T) {
	h := newHarness(t, scripted(0, 0, 3))
	conn := h.dial(t)

	// 1. Three frames: the third changes Open to Pointer.
	for i := 0; i < 3; i++ {
		send(t, conn, frame())
	}
	var ev gesture.Event
	readInto(t, conn, &ev)

	if ev.Result == nil || *ev.Result != (gesture.Result{HandSign: "Pointer", GestureType: "Stop"}) {
		t.Fatalf("expected Pointer/Stop, got %v", ev.Result)
	}
	if ev.PreviousResult != (gesture.Result{HandSign: "Open", GestureType: "Stop"}) {
		t.Errorf("expected previous Open/Stop, got %v", ev.PreviousResult)
	}
	if ev.UnchangedCount != 2 {
		t.Errorf("expected unchanged count 2, got %d", ev.UnchangedCount)
	}

	// 2. Malformed payloads are reported and skipped.
	cases := []struct {
		payload string
		message string
	}{
		{payload: "not base64!!", message: "Invalid Base64 data"},
		{payload: base64.StdEncoding.EncodeToString([]byte("short")), message: "Incorrect byte data size: 5"},
	}
	for _, tc := range cases {
		send(t, conn, tc.payload)
		var msg errorMessage
		readInto(t, conn, &msg)
		if msg.Error != tc.message {
			t.Errorf("expected error %q, got %q", tc.message, msg.Error)
		}
		if msg.Kind != "malformed" {
			t.Errorf("expected kind malformed, got %q", msg.Kind)
		}
	}

	// 3. The running session is listed with its counters.
	resp, err := h.server.Client().Get(h.server.URL + "/api/sessions/active")
	if err != nil {
		t.Fatalf("GET /api/sessions/active: %v", err)
	}
	var active struct {
		Sessions []session.Info `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&active)
	resp.Body.Close()
	if len(active.Sessions) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(active.Sessions))
	}
	if active.Sessions[0].Frames != 5 || active.Sessions[0].Failures != 2 {
		t.Errorf("expected 5 frames and 2 failures, got %d and %d", active.Sessions[0].Frames, active.Sessions[0].Failures)
	}

	// 4. Disconnecting closes the session and journals the flush.
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	closed := h.waitClosed(t)
	if closed.Frames != 5 || closed.Failures != 2 {
		t.Errorf("expected journaled 5 frames and 2 failures, got %d and %d", closed.Frames, closed.Failures)
	}
	transitions, err := h.store.Transitions().ListBySession(closed.ID)
	if err != nil {
		t.Fatalf("list transitions: %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}
	flush := transitions[1]
	if !flush.Terminal() {
		t.Errorf("expected terminal flush, got %v", flush.Result)
	}
	if flush.PreviousResult.HandSign != "Pointer" || flush.UnchangedCount != 1 {
		t.Errorf("expected flush of Pointer x1, got %v x%d", flush.PreviousResult, flush.UnchangedCount)
	}
	if h.sessions.Len() != 0 {
		t.Errorf("expected no running sessions, got %d", h.sessions.Len())
	}
}

func TestFrameSocket_ExternalFailure(t *testing.T) {
	h := newHarness(t, scripted(0))
	h.detector.Queue(detector.Response{Err: errors.New("boom")})
	conn := h.dial(t)

	send(t, conn, frame())
	var msg errorMessage
	readInto(t, conn, &msg)

	if msg.Kind != "external" {
		t.Errorf("expected kind external, got %q", msg.Kind)
	}
	if msg.Error != "Processing failed: detect: boom" {
		t.Errorf("expected processing failure, got %q", msg.Error)
	}
}

func TestFrameSocket_SessionsAreIsolated(t *testing.T) {
	h := newHarness(t, scripted(0))
	first := h.dial(t)
	second := h.dial(t)

	send(t, first, frame())
	send(t, second, "")
	var msg errorMessage
	readInto(t, second, &msg)

	deadline := time.Now().Add(5 * time.Second)
	for h.sessions.Len() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.sessions.Len() != 2 {
		t.Fatalf("expected 2 running sessions, got %d", h.sessions.Len())
	}
	active := h.sessions.Active()
	var failures int
	for _, info := range active {
		failures += info.Failures
	}
	if failures != 1 {
		t.Errorf("expected exactly one failing session, got %d failures", failures)
	}
}
