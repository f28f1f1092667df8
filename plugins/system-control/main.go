// Command system-control is an action plugin that drives volume and media
// playback from gestures. It uses AppleScript on macOS and pactl/playerctl
// elsewhere.
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

// command is one system control in both platform dialects.
type command struct {
	appleScript string
	linux       []string
}

var commands = map[string]command{
	"volume-up": {
		`set volume output volume ((output volume of (get volume settings)) + 10)`,
		[]string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%"},
	},
	"volume-down": {
		`set volume output volume ((output volume of (get volume settings)) - 10)`,
		[]string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%"},
	},
	"volume-mute": {
		`set volume output muted (not (output muted of (get volume settings)))`,
		[]string{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"},
	},
	"media-play-pause": {
		`tell application "System Events" to key code 100`,
		[]string{"playerctl", "play-pause"},
	},
	"media-next": {
		`tell application "System Events" to key code 101`,
		[]string{"playerctl", "next"},
	},
	"media-prev": {
		`tell application "System Events" to key code 98`,
		[]string{"playerctl", "previous"},
	},
}

// gestureActions resolves the "auto" action from the completed gesture.
var gestureActions = map[string]string{
	"swipe_left":       "media-prev",
	"swipe_right":      "media-next",
	"right_above_head": "volume-up",
	"left_above_head":  "volume-down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		respond(fmt.Errorf("failed to decode request: %w", err))
		return
	}
	respond(execute(req))
}

func resolve(req Request) (string, command, error) {
	action := req.Action
	if action == "auto" {
		action = gestureActions[req.Gesture]
		if action == "" {
			return "", command{}, fmt.Errorf("no automatic action for gesture %q", req.Gesture)
		}
	}
	cmd, ok := commands[action]
	if !ok {
		return "", command{}, fmt.Errorf("unknown action: %s", req.Action)
	}
	return action, cmd, nil
}

func execute(req Request) error {
	action, cmd, err := resolve(req)
	if err != nil {
		return err
	}

	var out []byte
	if runtime.GOOS == "darwin" {
		out, err = exec.Command("osascript", "-e", cmd.appleScript).CombinedOutput()
	} else {
		out, err = exec.Command(cmd.linux[0], cmd.linux[1:]...).CombinedOutput()
	}
	if err != nil {
		return fmt.Errorf("action %s failed: %w: %s", action, err, strings.TrimSpace(string(out)))
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
