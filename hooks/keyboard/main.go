// Command keyboard is a pose hook that sends keystrokes, e.g. to flip
// presentation slides. It uses AppleScript on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request is the pose transition sent by aronvision.
type Request struct {
	Action string          `json:"action"`
	Pose   string          `json:"pose"`
	Params json.RawMessage `json:"params"`
}

// Response is written back on stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// KeystrokeParams defines the key and modifiers of a keystroke action.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// appleModifiers maps modifier names to AppleScript equivalents.
var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdoModifiers maps modifier names to xdotool key names.
var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		respond(fmt.Errorf("failed to decode request: %w", err))
		return
	}
	if req.Action != "keystroke" {
		respond(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	var p KeystrokeParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		respond(fmt.Errorf("failed to parse params: %w", err))
		return
	}
	args, err := keystroke(runtime.GOOS, p)
	if err != nil {
		respond(err)
		return
	}
	if out, err := exec.Command(args[0], args[1:]...).CombinedOutput(); err != nil {
		respond(fmt.Errorf("keystroke failed: %w: %s", err, out))
		return
	}
	respond(nil)
}

// keystroke builds the command that presses p on goos.
func keystroke(goos string, p KeystrokeParams) ([]string, error) {
	if p.Key == "" {
		return nil, errors.New("key is required")
	}

	switch goos {
	case "darwin":
		var mods []string
		for _, m := range p.Modifiers {
			if am, ok := appleModifiers[strings.ToLower(m)]; ok {
				mods = append(mods, am)
			}
		}
		script := fmt.Sprintf(`tell application "System Events" to keystroke %q`, p.Key)
		if len(mods) > 0 {
			script += " using {" + strings.Join(mods, ", ") + "}"
		}
		return []string{"osascript", "-e", script}, nil
	case "linux":
		combo := []string{}
		for _, m := range p.Modifiers {
			if xm, ok := xdoModifiers[strings.ToLower(m)]; ok {
				combo = append(combo, xm)
			}
		}
		combo = append(combo, p.Key)
		return []string{"xdotool", "key", strings.Join(combo, "+")}, nil
	default:
		return nil, fmt.Errorf("keystrokes are not supported on %s", goos)
	}
}

func respond(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
