// Package tray provides a system tray menu for aronvision.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/aronvision/internal/pose"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	halted   bool
	hands    string
	body     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuHands  *systray.MenuItem
	menuBody   *systray.MenuItem
}

// New creates a new Tray with the given initial enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		hands:   handsLabel(nil),
		body:    bodyLabel(pose.BodyUnsure),
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback function to be called when the dashboard item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Aron")
	systray.SetTooltip("Aron hand and body pose recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(t.toggleLabel(), "Toggle pose recognition")
	systray.AddSeparator()

	t.menuHands = systray.AddMenuItem(t.hands, "Last hand poses")
	t.menuHands.Disable()
	t.menuBody = systray.AddMenuItem(t.body, "Last body pose")
	t.menuBody.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Aron")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// toggleLabel must be called with t.mu held.
func (t *Tray) toggleLabel() string {
	switch {
	case t.halted:
		return "⚠ Halted"
	case t.enabled:
		return "● Enabled"
	default:
		return "○ Disabled"
	}
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(t.toggleLabel())
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleOpen handles the dashboard menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func handsLabel(poses []pose.HandPose) string {
	if len(poses) == 0 {
		return "Hands: none"
	}
	names := make([]string, len(poses))
	for i, p := range poses {
		names[i] = string(p)
	}
	return "Hands: " + strings.Join(names, ", ")
}

func bodyLabel(p pose.BodyPose) string {
	return "Body: " + string(p)
}

// SetPoses updates the last pose display. The menu is only touched when a
// label changed.
func (t *Tray) SetPoses(hands []pose.HandPose, body pose.BodyPose) {
	h, b := handsLabel(hands), bodyLabel(body)

	t.mu.Lock()
	defer t.mu.Unlock()

	if h != t.hands {
		t.hands = h
		if t.menuHands != nil {
			t.menuHands.SetTitle(h)
		}
	}
	if b != t.body {
		t.body = b
		if t.menuBody != nil {
			t.menuBody.SetTitle(b)
		}
	}
}

// SetHalted marks the pipeline as halted after repeated detection failures.
func (t *Tray) SetHalted(halted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.halted = halted
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(t.toggleLabel())
	}
}

// Labels returns the current hand and body menu texts.
func (t *Tray) Labels() (hands, body string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hands, t.body
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
