// Package tray provides the system tray interface for abhinaya.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
)

// Tray represents the system tray application. It is also a gesture
// listener that shows the current player and the last completed gesture.
type Tray struct {
	onToggle   func(enabled bool)
	onRecord   func(recording bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	recording  bool
	player     uint32
	last       gesture.Kind
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuRecord      *systray.MenuItem
	menuPlayer      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnRecord sets the callback function to be called when frame recording is toggled.
func (t *Tray) OnRecord(fn func(recording bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRecord = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("Abhinaya")
	systray.SetTooltip("Abhinaya Body Gestures")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	t.menuRecord = systray.AddMenuItemCheckbox("Record frames", "Record skeleton frames to the database", t.recording)
	systray.AddSeparator()

	t.menuPlayer = systray.AddMenuItem(playerTitle(t.player), "Calibrated player")
	t.menuPlayer.Disable()
	t.menuLastGesture = systray.AddMenuItem(gestureTitle(t.last), "Last completed gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Monitor...", "Open the monitor in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Abhinaya")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuRecord.ClickedCh:
				t.handleRecord()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func playerTitle(userID uint32) string {
	if userID == 0 {
		return "Player: none"
	}
	return fmt.Sprintf("Player: user %d", userID)
}

func gestureTitle(kind gesture.Kind) string {
	return "Last: " + kind.String()
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleRecord handles the record checkbox click.
func (t *Tray) handleRecord() {
	t.mu.Lock()
	t.recording = !t.recording
	recording := t.recording
	if t.menuRecord != nil {
		if recording {
			t.menuRecord.Check()
		} else {
			t.menuRecord.Uncheck()
		}
	}
	callback := t.onRecord
	t.mu.Unlock()

	if callback != nil {
		callback(recording)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
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

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(kind gesture.Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = kind
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(gestureTitle(kind))
	}
}

// SetPlayer updates the player display. Zero means no player.
func (t *Tray) SetPlayer(userID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.player = userID
	if t.menuPlayer != nil {
		t.menuPlayer.SetTitle(playerTitle(userID))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// SetEnabled sets the enabled state without calling the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsRecording returns whether the record checkbox is checked.
func (t *Tray) IsRecording() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recording
}

// SetRecording sets the initial record checkbox state.
func (t *Tray) SetRecording(recording bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = recording
	if t.menuRecord != nil {
		if recording {
			t.menuRecord.Check()
		} else {
			t.menuRecord.Uncheck()
		}
	}
}

func (t *Tray) OnUserDetected(userID uint32) {
	t.SetPlayer(userID)
}

func (t *Tray) OnUserLost(userID uint32) {
	t.SetPlayer(0)
}

func (t *Tray) OnGestureInProgress(userID uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, output r3.Vec) {
}

func (t *Tray) OnGestureCompleted(userID uint32, kind gesture.Kind, joint skeleton.Joint, output r3.Vec) bool {
	t.SetLastGesture(kind)
	return false
}

func (t *Tray) OnGestureCancelled(userID uint32, kind gesture.Kind, joint skeleton.Joint) bool {
	return false
}
