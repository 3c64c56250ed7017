package api

import (
	"net/http"

	"github.com/ayusman/waveoff/internal/plugin"
)

// HookHandler lists discovered transition hooks and the dispatcher counters.
type HookHandler struct {
	manager    *plugin.Manager
	dispatcher *plugin.Dispatcher
}

// NewHookHandler creates a HookHandler. dispatcher may be nil when hooks are
// disabled.
func NewHookHandler(manager *plugin.Manager, dispatcher *plugin.Dispatcher) *HookHandler {
	return &HookHandler{manager: manager, dispatcher: dispatcher}
}

type hookResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Events      []string `json:"events,omitempty"`
	HandSigns   []string `json:"hand_signs,omitempty"`
	Gestures    []string `json:"gestures,omitempty"`
}

type listHooksResponse struct {
	Hooks []hookResponse `json:"hooks"`
	Stats *plugin.Stats  `json:"stats,omitempty"`
}

func (h *HookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := listHooksResponse{Hooks: []hookResponse{}}
	if h.manager != nil {
		for _, p := range h.manager.List() {
			response.Hooks = append(response.Hooks, hookResponse{
				Name:        p.Manifest.Name,
				Version:     p.Manifest.Version,
				Description: p.Manifest.Description,
				Events:      p.Manifest.Events,
				HandSigns:   p.Manifest.HandSigns,
				Gestures:    p.Manifest.Gestures,
			})
		}
	}
	if h.dispatcher != nil {
		stats := h.dispatcher.Stats()
		response.Stats = &stats
	}

	writeJSON(w, http.StatusOK, response)
}
