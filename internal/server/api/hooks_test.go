package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/waveoff/internal/plugin"
)

func TestHookHandler_List(t *testing.T) {
	dir := t.TempDir()
	hookDir := filepath.Join(dir, "media")
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}
	manifest := plugin.Manifest{
		Name:       "media",
		Version:    "1.0.0",
		Executable: "run.sh",
		Events:     []string{plugin.EventChange},
		HandSigns:  []string{"Pointer"},
	}
	data, _ := json.Marshal(manifest)
	if err := os.WriteFile(filepath.Join(hookDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(hookDir, "run.sh"), []byte("#!/bin/sh\necho '{\"success\":true}'\n"), 0755); err != nil {
		t.Fatalf("failed to write executable: %v", err)
	}

	manager := plugin.NewManager(dir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	dispatcher := plugin.NewDispatcher(manager, plugin.NewExecutor(0), 4, nil)
	handler := NewHookHandler(manager, dispatcher)

	t.Run("lists hooks with stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/hooks", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var response listHooksResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(response.Hooks) != 1 || response.Hooks[0].Name != "media" {
			t.Fatalf("expected the media hook, got %+v", response.Hooks)
		}
		if len(response.Hooks[0].HandSigns) != 1 || response.Hooks[0].HandSigns[0] != "Pointer" {
			t.Errorf("expected hand sign filter, got %v", response.Hooks[0].HandSigns)
		}
		if response.Stats == nil {
			t.Error("expected dispatcher stats")
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/hooks", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}
