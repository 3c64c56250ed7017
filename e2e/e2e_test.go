package e2e

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/waveoff/internal/app"
	"github.com/ayusman/waveoff/internal/config"
	"github.com/ayusman/waveoff/internal/detector"
	"github.com/ayusman/waveoff/internal/gesture"
	"github.com/ayusman/waveoff/internal/logging"
	"github.com/ayusman/waveoff/internal/store"
)

const frameWidth, frameHeight = 256, 144

// writeSamples stores one training row per preset hand, labelled the way
// the default hand-sign table names them.
func writeSamples(t *testing.T, path string) {
	t.Helper()
	presets := []struct {
		label int
		hand  detector.HandLandmarks
	}{
		{gesture.HandSignOpen, detector.OpenPalmLandmarks()},
		{gesture.HandSignPointer, detector.PointerLandmarks()},
	}

	var sb strings.Builder
	for _, p := range presets {
		sb.WriteString(fmt.Sprint(p.label))
		for _, v := range gesture.NormalizeLandmarks(p.hand.Pixels(frameWidth, frameHeight)) {
			fmt.Fprintf(&sb, ",%g", v)
		}
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("failed to write samples: %v", err)
	}
}

func framePayload() []byte {
	raw := make([]byte, frameWidth*frameHeight*3)
	return []byte(base64.StdEncoding.EncodeToString(raw))
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(tmpDir, "data.db")
	cfg.Hooks.Enabled = false
	cfg.Classifier.HandSignSamples = filepath.Join(tmpDir, "keypoint.csv")
	writeSamples(t, cfg.Classifier.HandSignSamples)

	mockDetector := detector.NewMockDetector()
	application, err := app.New(&cfg, app.Options{Logger: logging.NewNop(), Detector: mockDetector})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application.Start(ctx)

	ts := httptest.NewServer(application.Server())
	defer ts.Close()
	client := ts.Client()

	// A shifted hand keeps its shape, so the classifier sees the same sign.
	open := detector.OpenPalmLandmarks()
	pointer := detector.PointerLandmarks()
	mockDetector.Queue(
		detector.Response{Hands: []detector.HandLandmarks{open}},
		detector.Response{Hands: []detector.HandLandmarks{open.Shifted(0.02, 0)}},
		detector.Response{Hands: []detector.HandLandmarks{pointer}},
		detector.Response{Hands: []detector.HandLandmarks{pointer.Shifted(0.01, 0.01)}},
		detector.Response{},
	)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/opencv", nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	var events []gesture.Event
	t.Run("StreamFrames", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, framePayload()); err != nil {
				t.Fatalf("write frame %d: %v", i+1, err)
			}
		}
		for len(events) < 2 {
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			var ev gesture.Event
			if err := conn.ReadJSON(&ev); err != nil {
				t.Fatalf("read event: %v", err)
			}
			events = append(events, ev)
		}

		want := []struct {
			result   gesture.Result
			previous gesture.Result
			count    int
		}{
			{gesture.Result{HandSign: "Pointer", GestureType: "Stop"}, gesture.Result{HandSign: "Open", GestureType: "Stop"}, 2},
			{gesture.NoHand, gesture.Result{HandSign: "Pointer", GestureType: "Stop"}, 2},
		}
		for i, w := range want {
			if events[i].Result == nil || *events[i].Result != w.result {
				t.Errorf("event %d: result = %v, want %v", i, events[i].Result, w.result)
			}
			if events[i].PreviousResult != w.previous || events[i].UnchangedCount != w.count {
				t.Errorf("event %d: previous = %v x%d, want %v x%d",
					i, events[i].PreviousResult, events[i].UnchangedCount, w.previous, w.count)
			}
		}
	})

	t.Run("ActiveSession", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/active")
		if err != nil {
			t.Fatalf("GET active error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Sessions []struct {
				ID      string          `json:"id"`
				Current *gesture.Result `json:"current"`
			} `json:"sessions"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		if len(body.Sessions) != 1 {
			t.Fatalf("active sessions = %d, want 1", len(body.Sessions))
		}
		if body.Sessions[0].Current == nil || *body.Sessions[0].Current != gesture.NoHand {
			t.Errorf("current = %v, want %v", body.Sessions[0].Current, gesture.NoHand)
		}
	})

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	var sessionID string
	t.Run("JournaledTransitions", func(t *testing.T) {
		deadline := time.Now().Add(5 * time.Second)
		var sessions []*store.Session
		for time.Now().Before(deadline) {
			resp, err := client.Get(ts.URL + "/api/sessions")
			if err != nil {
				t.Fatalf("GET sessions error = %v", err)
			}
			var body struct {
				Sessions []*store.Session `json:"sessions"`
			}
			json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			sessions = body.Sessions
			if len(sessions) == 1 && !sessions[0].Active() {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if len(sessions) != 1 || sessions[0].Active() {
			t.Fatalf("expected one closed session, got %+v", sessions)
		}
		sessionID = sessions[0].ID

		resp, err := client.Get(ts.URL + "/api/sessions/" + sessionID + "/transitions")
		if err != nil {
			t.Fatalf("GET transitions error = %v", err)
		}
		defer resp.Body.Close()
		var body struct {
			Transitions []*store.Transition `json:"transitions"`
		}
		json.NewDecoder(resp.Body).Decode(&body)

		if len(body.Transitions) != 3 {
			t.Fatalf("transitions = %d, want 3", len(body.Transitions))
		}
		flush := body.Transitions[2]
		if !flush.Terminal() || flush.PreviousResult != gesture.NoHand || flush.UnchangedCount != 1 {
			t.Errorf("flush = %+v, want terminal None x1", flush)
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after session")
		}
		resp.Body.Close()
	})
}
