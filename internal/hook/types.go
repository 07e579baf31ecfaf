// Package hook runs external programs when a pose label changes.
//
// A hook lives in its own directory under the hooks directory and is
// described by a hook.json manifest. The manifest names an executable and
// the triggers it answers to. When a transition matches a trigger, the
// executable is started with a JSON Request on stdin and must print a JSON
// Response on stdout.
package hook

import (
	"encoding/json"
	"time"

	"github.com/ayusman/aronvision/internal/pipeline"
)

// ManifestFile is the manifest name looked up in every hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook's metadata and triggers.
type Manifest struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Executable  string    `json:"executable"`
	Triggers    []Trigger `json:"triggers"`
}

// Trigger binds a pose transition to an action of the hook.
type Trigger struct {
	Kind   pipeline.TransitionKind `json:"kind"`
	Pose   string                  `json:"pose"`
	Slot   *int                    `json:"slot,omitempty"`
	Action string                  `json:"action"`
	Params json.RawMessage         `json:"params,omitempty"`
}

// Matches reports whether tr fires the trigger. A nil Slot matches any hand.
func (t Trigger) Matches(tr pipeline.Transition) bool {
	if t.Kind != tr.Kind || t.Pose != tr.Pose {
		return false
	}
	return t.Slot == nil || *t.Slot == tr.Slot
}

// Request is sent to a hook on stdin.
type Request struct {
	Action    string                  `json:"action"`
	Kind      pipeline.TransitionKind `json:"kind"`
	Slot      int                     `json:"slot"`
	Pose      string                  `json:"pose"`
	Seq       uint64                  `json:"seq"`
	Timestamp time.Time               `json:"timestamp"`
	Params    json.RawMessage         `json:"params,omitempty"`
}

// Response is read from a hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Binding is a hook together with the trigger that selected it.
type Binding struct {
	Hook    *Hook
	Trigger Trigger
}

// Request builds the request sent for tr.
func (b Binding) Request(tr pipeline.Transition) *Request {
	return &Request{
		Action:    b.Trigger.Action,
		Kind:      tr.Kind,
		Slot:      tr.Slot,
		Pose:      tr.Pose,
		Seq:       tr.Seq,
		Timestamp: tr.Timestamp,
		Params:    b.Trigger.Params,
	}
}
