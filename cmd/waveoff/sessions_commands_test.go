package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/waveoff/internal/gesture"
	"github.com/ayusman/waveoff/internal/store"
)

func seedJournal(t *testing.T, path string) {
	t.Helper()
	st, err := store.New(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	j := store.NewJournal(st)
	started := time.Now().Add(-time.Minute)
	if err := j.OpenSession("sess-1", "127.0.0.1:9000", started); err != nil {
		t.Fatalf("open session: %v", err)
	}
	events := []gesture.Event{
		{
			Result:         &gesture.Result{HandSign: "Pointer", GestureType: "Stop"},
			PreviousResult: gesture.Result{HandSign: "Open", GestureType: "Stop"},
			UnchangedCount: 5,
		},
		{PreviousResult: gesture.Result{HandSign: "Pointer", GestureType: "Stop"}, UnchangedCount: 3},
	}
	for _, ev := range events {
		if err := j.RecordTransition("sess-1", ev, started.Add(time.Second)); err != nil {
			t.Fatalf("record transition: %v", err)
		}
	}
	if err := j.CloseSession("sess-1", started.Add(30*time.Second), 8, 1); err != nil {
		t.Fatalf("close session: %v", err)
	}
}

func TestSessionsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sessions"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "No sessions recorded")

	seedJournal(t, env.storePath)

	out, _, err = runCLI(t, []string{"sessions"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "sess-1")
	requireContains(t, out, "127.0.0.1:9000")
	requireContains(t, out, "30s")

	out, _, err = runCLI(t, []string{"sessions", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions --json: %v", err)
	}
	var sessions []store.Session
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Frames != 8 || sessions[0].Failures != 1 {
		t.Errorf("expected one session with 8 frames and 1 failure, got %+v", sessions)
	}
}

func TestTransitionsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJournal(t, env.storePath)

	out, _, err := runCLI(t, []string{"transitions", "sess-1"}, env.configPath)
	if err != nil {
		t.Fatalf("transitions: %v", err)
	}
	requireContains(t, out, "Pointer")
	requireContains(t, out, "Open/Stop")
	requireContains(t, out, "(end)")

	if _, _, err := runCLI(t, []string{"transitions", "missing"}, env.configPath); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"transitions"}, env.configPath); err == nil {
		t.Error("expected an argument error")
	}
}

func TestSessionsPruneCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJournal(t, env.storePath)

	out, _, err := runCLI(t, []string{"sessions", "prune", "--older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Removed 0 sessions")

	out, _, err = runCLI(t, []string{"sessions", "prune", "--older-than", "1s"}, env.configPath)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Removed 1 sessions")
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	change := formatEvent(gesture.Event{
		Result:         &gesture.Result{HandSign: "Pointer", GestureType: "Index Wave"},
		PreviousResult: gesture.Result{HandSign: "Open", GestureType: "Stop"},
		UnchangedCount: 4,
	}, at)
	if change != "09:30:00.000  change     Open/Stop -> Pointer/Index Wave after 4 frames" {
		t.Errorf("unexpected change line %q", change)
	}

	end := formatEvent(gesture.Event{PreviousResult: gesture.NoHand, UnchangedCount: 2}, at)
	if end != "09:30:00.000  end        None/None held 2 frames" {
		t.Errorf("unexpected end line %q", end)
	}
}
