// Command keyboard is an action plugin that presses keys when a body
// gesture completes. It uses AppleScript on macOS and xdotool elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request is the JSON the host writes to stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	UserID  uint32          `json:"user_id,omitempty"`
	Joint   string          `json:"joint,omitempty"`
	Output  [3]float64      `json:"output"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response is the JSON written to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeyConfig is the per-binding configuration. An empty key falls back to
// the gesture's default key.
type KeyConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

// gestureKeys are the keys pressed when a binding names no key.
var gestureKeys = map[string]string{
	"swipe_left":       "left",
	"swipe_right":      "right",
	"right_above_head": "up",
	"left_above_head":  "down",
}

// macKeyCodes are AppleScript key codes for named keys.
var macKeyCodes = map[string]int{
	"left":   123,
	"right":  124,
	"down":   125,
	"up":     126,
	"space":  49,
	"return": 36,
	"escape": 53,
}

var macModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

var xdoKeys = map[string]string{
	"left":   "Left",
	"right":  "Right",
	"up":     "Up",
	"down":   "Down",
	"space":  "space",
	"return": "Return",
	"escape": "Escape",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		respond(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	switch req.Action {
	case "key", "shortcut":
		respond(press(req))
	default:
		respond(fmt.Errorf("unknown action: %s", req.Action))
	}
}

func press(req Request) error {
	var cfg KeyConfig
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Key == "" {
		cfg.Key = gestureKeys[req.Gesture]
	}
	if cfg.Key == "" {
		return fmt.Errorf("key is required for gesture %q", req.Gesture)
	}

	if runtime.GOOS == "darwin" {
		return run("osascript", "-e", appleScript(cfg))
	}
	return run("xdotool", "key", xdoChord(cfg))
}

// appleScript builds the System Events command for cfg.
func appleScript(cfg KeyConfig) string {
	var mods []string
	for _, m := range cfg.Modifiers {
		if am, ok := macModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}

	stroke := fmt.Sprintf("keystroke %q", cfg.Key)
	if code, ok := macKeyCodes[strings.ToLower(cfg.Key)]; ok {
		stroke = fmt.Sprintf("key code %d", code)
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, stroke)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, stroke, strings.Join(mods, ", "))
}

// xdoChord builds an xdotool key chord such as "ctrl+shift+Left".
func xdoChord(cfg KeyConfig) string {
	var parts []string
	for _, m := range cfg.Modifiers {
		if xm, ok := xdoModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	key := cfg.Key
	if xk, ok := xdoKeys[strings.ToLower(key)]; ok {
		key = xk
	}
	return strings.Join(append(parts, key), "+")
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func respond(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
