// Package main is a transition hook that maps gesture changes to media and
// volume keys. It reads one waveoff hook request from stdin and answers with
// a hook response on stdout.
//
// On macOS keys are sent through AppleScript; elsewhere playerctl and amixer
// are used.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Result mirrors the classification carried by a hook request.
type Result struct {
	HandSign    string `json:"hand_sign"`
	GestureType string `json:"gesture_type"`
}

// Request represents the input from the hook dispatcher.
type Request struct {
	Event          string  `json:"event"`
	SessionID      string  `json:"session_id"`
	Result         *Result `json:"result"`
	PreviousResult Result  `json:"previous_result"`
	UnchangedCount int     `json:"unchanged_count"`
}

// Response represents the output to the hook dispatcher.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Action  string `json:"action,omitempty"`
}

// actionHandler defines a function type for handling specific actions.
type actionHandler func() error

// binding triggers action when a change lands on Result after the previous
// state was held for at least MinHeld frames.
type binding struct {
	Result  Result
	MinHeld int
	Action  string
}

var bindings = []binding{
	{Result: Result{HandSign: "Open", GestureType: "Normal Wave"}, Action: "media-play-pause"},
	{Result: Result{HandSign: "Pointer", GestureType: "Index Wave"}, Action: "media-next"},
	{Result: Result{HandSign: "Close", GestureType: "Stop"}, MinHeld: 3, Action: "volume-mute"},
}

var actionHandlers = map[string]actionHandler{
	"volume-mute":      volumeMute,
	"media-play-pause": mediaPlayPause,
	"media-next":       mediaNext,
}

// dryRun reports the chosen action without touching the system.
var dryRun = os.Getenv("WAVEOFF_DRY_RUN") != ""

func main() {
	json.NewEncoder(os.Stdout).Encode(handle(os.Stdin))
}

func handle(r io.Reader) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	action := actionFor(req)
	if action == "" {
		return Response{Success: true}
	}
	if dryRun {
		return Response{Success: true, Action: action}
	}

	handler, ok := actionHandlers[action]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown action: %s", action)}
	}
	if err := handler(); err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", action, err), Action: action}
	}
	return Response{Success: true, Action: action}
}

// actionFor returns the bound action for a change event, or "".
func actionFor(req Request) string {
	if req.Event != "change" || req.Result == nil {
		return ""
	}
	for _, b := range bindings {
		if *req.Result == b.Result && req.UnchangedCount >= b.MinHeld {
			return b.Action
		}
	}
	return ""
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	return run("osascript", "-e", script)
}

// volumeMute toggles the system mute state.
func volumeMute() error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`set volume output muted (not (output muted of (get volume settings)))`)
	}
	return run("amixer", "-q", "set", "Master", "toggle")
}

// mediaPlayPause toggles media play/pause using the Play-Pause media key.
func mediaPlayPause() error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`tell application "System Events"
	key code 100
end tell`)
	}
	return run("playerctl", "play-pause")
}

// mediaNext skips to the next track using the Next media key.
func mediaNext() error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`tell application "System Events"
	key code 101
end tell`)
	}
	return run("playerctl", "next")
}
