// Command media-control is a pose hook that drives volume and media
// playback. It uses AppleScript on macOS and pactl/playerctl on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request is the pose transition sent by aronvision.
type Request struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	Slot   int    `json:"slot"`
	Pose   string `json:"pose"`
}

// Response is written back on stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// command is the program and arguments for one platform.
type command []string

// actions maps action names to their command per GOOS.
var actions = map[string]map[string]command{
	"volume-up": {
		"darwin": appleScript(`set volume output volume ((output volume of (get volume settings)) + 10)`),
		"linux":  {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%"},
	},
	"volume-down": {
		"darwin": appleScript(`set volume output volume ((output volume of (get volume settings)) - 10)`),
		"linux":  {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%"},
	},
	"volume-mute": {
		"darwin": appleScript(`set volume output muted (not (output muted of (get volume settings)))`),
		"linux":  {"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"},
	},
	"media-play-pause": {
		"darwin": appleScript(`tell application "System Events" to key code 100`),
		"linux":  {"playerctl", "play-pause"},
	},
	"media-next": {
		"darwin": appleScript(`tell application "System Events" to key code 101`),
		"linux":  {"playerctl", "next"},
	},
	"media-prev": {
		"darwin": appleScript(`tell application "System Events" to key code 98`),
		"linux":  {"playerctl", "previous"},
	},
}

func appleScript(script string) command {
	return command{"osascript", "-e", script}
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		respond(fmt.Errorf("failed to decode request: %w", err))
		return
	}
	respond(run(req.Action, runtime.GOOS))
}

func run(action, goos string) error {
	byOS, ok := actions[action]
	if !ok {
		return fmt.Errorf("unknown action: %s", action)
	}
	cmd, ok := byOS[goos]
	if !ok {
		return fmt.Errorf("action %s is not supported on %s", action, goos)
	}
	out, err := exec.Command(cmd[0], cmd[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("action %s failed: %w: %s", action, err, out)
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
