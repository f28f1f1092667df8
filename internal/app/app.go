// Package app ties the frame source, the preprocessor, the user tracker,
// the gesture manager and the listeners into one engine driven by a tick loop.
package app

import (
	"log"
	"slices"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/filter"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/listener"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/user"
	"github.com/ayusman/abhinaya/internal/vehicle"
)

// Config holds the collaborators of an App.
type Config struct {
	// Settings is the engine configuration. Nil selects config.DefaultConfig.
	Settings *config.Config
	// Source supplies frames to Run. ProcessFrame does not need it.
	Source skeleton.Source
	// Store enables frame recording when set.
	Store *store.Store
}

// App is the engine context. Ticks and queries are serialized internally,
// so an App may be shared between the tick loop and the monitoring server.
type App struct {
	source    skeleton.Source
	settings  *config.Config
	pre       *filter.Preprocessor
	gestures  *gesture.Manager
	tracker   *user.Tracker
	listeners *listener.Registry
	vehicle   *vehicle.Controls
	recorder  *Recorder

	// tick serializes frame processing and engine queries.
	tick sync.Mutex
	now  time.Time

	mu      sync.RWMutex
	enabled bool
	pending *config.Config
}

// New creates a new App. The vehicle controls are registered as the first listener.
func New(c Config) *App {
	settings := c.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	settings = settings.Clone()

	a := &App{
		source:    c.Source,
		settings:  settings,
		listeners: listener.NewRegistry(),
		vehicle:   vehicle.NewControls(),
		enabled:   true,
	}

	a.pre = filter.NewPreprocessor(settings.FilterOptions())
	a.gestures = gesture.NewManager(gesture.ManagerConfig{Now: a.clock})
	a.gestures.SetMinTimeBetweenGestures(settings.GestureGap())
	a.tracker = user.NewTracker(settings.TrackerConfig(), a.pre, a.gestures, a.listeners)
	a.listeners.Add(a.vehicle)

	if c.Store != nil {
		a.recorder = NewRecorder(c.Store)
	}

	return a
}

// clock returns the timestamp of the frame being processed, so that resets
// issued by listeners line up with frame time.
func (a *App) clock() time.Time {
	if a.now.IsZero() {
		return time.Now()
	}
	return a.now
}

// AddListener registers a listener and returns a function that removes it.
// Listeners run inside the tick and must not call back into the App.
func (a *App) AddListener(l listener.Listener) func() {
	return a.listeners.Add(l)
}

// SetEnabled enables or disables frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// ApplyConfig queues a configuration to be applied before the next tick.
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = cfg.Clone()
}

// Settings returns a copy of the active configuration.
func (a *App) Settings() *config.Config {
	a.tick.Lock()
	defer a.tick.Unlock()
	return a.settings.Clone()
}

// applyPending swaps in a queued configuration. Called with a.tick held.
func (a *App) applyPending() {
	a.mu.Lock()
	cfg := a.pending
	a.pending = nil
	a.mu.Unlock()
	if cfg == nil {
		return
	}

	old := a.settings
	a.settings = cfg

	if cfg.FilterOptions() != old.FilterOptions() {
		a.pre = filter.NewPreprocessor(cfg.FilterOptions())
		a.tracker.SetPreprocessor(a.pre)
	}
	a.tracker.SetConfig(cfg.TrackerConfig())
	a.gestures.SetMinTimeBetweenGestures(cfg.GestureGap())

	if id, ok := a.tracker.Player(); ok && !slices.Equal(cfg.PlayerGestures, old.PlayerGestures) {
		for _, kind := range old.PlayerGestures {
			if !slices.Contains(cfg.PlayerGestures, kind) {
				a.gestures.Delete(id.UserID, kind)
			}
		}
		for _, kind := range cfg.PlayerGestures {
			if !a.gestures.IsTracked(id.UserID, kind) {
				a.gestures.StartTracking(id.UserID, kind)
			}
		}
	}

	log.Println("Configuration applied")
}

// ProcessFrame runs one tick: preprocess, calibrate or track the player,
// evaluate the player's gestures and dispatch the resulting events.
func (a *App) ProcessFrame(frame *skeleton.Frame) {
	if frame == nil || !a.IsEnabled() {
		return
	}

	a.tick.Lock()
	defer a.tick.Unlock()

	a.applyPending()

	if frame.Timestamp.IsZero() {
		stamped := *frame
		stamped.Timestamp = time.Now()
		frame = &stamped
	}
	a.now = frame.Timestamp

	if a.recorder != nil {
		if err := a.recorder.Add(frame); err != nil {
			log.Printf("Error recording frame: %v", err)
		}
	}

	res := a.tracker.SelectAndCalibrate(frame)
	if !res.Bound || res.Slot == nil {
		return
	}

	userID := res.Identity.UserID
	body := a.pre.Process(res.Slot, frame.Timestamp)
	a.gestures.Evaluate(userID, gesture.Input{Now: frame.Timestamp, Pose: body.Pose()})
	a.listeners.Dispatch(a.gestures, userID)
}

// Vehicle returns the vehicle controls driven by the player's gestures.
func (a *App) Vehicle() *vehicle.Controls {
	return a.vehicle
}

// Recorder returns the frame recorder, or nil when the App has no store.
func (a *App) Recorder() *Recorder {
	return a.recorder
}

// PlayerID returns the bound player's user ID, or 0.
func (a *App) PlayerID() uint32 {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, _ := a.tracker.Player()
	return id.UserID
}

// IsCalibrated reports whether a player is bound.
func (a *App) IsCalibrated() bool {
	a.tick.Lock()
	defer a.tick.Unlock()
	_, ok := a.tracker.Player()
	return ok
}

// IsJointTracked reports whether the player's joint was tracked on the last tick.
func (a *App) IsJointTracked(j skeleton.Joint) bool {
	if !j.Valid() {
		return false
	}
	a.tick.Lock()
	defer a.tick.Unlock()
	if _, ok := a.tracker.Player(); !ok {
		return false
	}
	return a.pre.Body().Tracked[j]
}

// JointPosition returns the last tracked world position of the player's joint.
func (a *App) JointPosition(j skeleton.Joint) r3.Vec {
	if !j.Valid() {
		return r3.Vec{}
	}
	a.tick.Lock()
	defer a.tick.Unlock()
	if _, ok := a.tracker.Player(); !ok {
		return r3.Vec{}
	}
	return a.pre.Body().Positions[j]
}

// JointOrientation returns the derived orientation of the player's joint.
func (a *App) JointOrientation(j skeleton.Joint) filter.Orientation {
	if !j.Valid() {
		return filter.IdentityOrientation
	}
	a.tick.Lock()
	defer a.tick.Unlock()
	if _, ok := a.tracker.Player(); !ok {
		return filter.IdentityOrientation
	}
	return a.pre.Body().Orientations[j]
}

// UserPosition returns the player's body position in world space.
func (a *App) UserPosition() r3.Vec {
	a.tick.Lock()
	defer a.tick.Unlock()
	if _, ok := a.tracker.Player(); !ok {
		return r3.Vec{}
	}
	return a.pre.Body().Position
}

// ClearUsers releases the player and resets every filter.
func (a *App) ClearUsers() {
	a.tick.Lock()
	defer a.tick.Unlock()
	a.tracker.ClearUsers()
}

// Gesture lifecycle operations for the bound player. They return false,
// zero or nothing when no player is bound or the kind is unknown.

func (a *App) player() (uint32, bool) {
	id, ok := a.tracker.Player()
	return id.UserID, ok
}

// DetectGesture starts tracking a gesture for the player.
func (a *App) DetectGesture(kind gesture.Kind) bool {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	return ok && a.gestures.StartTracking(id, kind)
}

// ResetGesture restarts a gesture after the cooldown.
func (a *App) ResetGesture(kind gesture.Kind) bool {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	return ok && a.gestures.Reset(id, kind)
}

// DeleteGesture stops tracking a gesture for the player.
func (a *App) DeleteGesture(kind gesture.Kind) bool {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	return ok && a.gestures.Delete(id, kind)
}

// ClearGestures stops tracking every gesture of the player.
func (a *App) ClearGestures() {
	a.tick.Lock()
	defer a.tick.Unlock()
	if id, ok := a.player(); ok {
		a.gestures.ClearAll(id)
	}
}

// GestureCount returns the number of gestures tracked for the player.
func (a *App) GestureCount() int {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	if !ok {
		return 0
	}
	return a.gestures.Count(id)
}

// GestureKinds lists the gestures tracked for the player.
func (a *App) GestureKinds() []gesture.Kind {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	if !ok {
		return nil
	}
	return a.gestures.Kinds(id)
}

// IsGestureDetected reports whether the gesture is tracked for the player.
func (a *App) IsGestureDetected(kind gesture.Kind) bool {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	return ok && a.gestures.IsTracked(id, kind)
}

// IsGestureComplete reports whether the gesture completed, resetting all of
// the player's gestures when resetOnComplete is set.
func (a *App) IsGestureComplete(kind gesture.Kind, resetOnComplete bool) bool {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	return ok && a.gestures.IsComplete(id, kind, resetOnComplete)
}

// IsGestureCancelled reports whether the gesture's last attempt was cancelled.
func (a *App) IsGestureCancelled(kind gesture.Kind) bool {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	return ok && a.gestures.IsCancelled(id, kind)
}

// GestureProgress returns the gesture's progress in [0,1].
func (a *App) GestureProgress(kind gesture.Kind) float64 {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	if !ok {
		return 0
	}
	return a.gestures.Progress(id, kind)
}

// GestureOutput returns the gesture specific output vector.
func (a *App) GestureOutput(kind gesture.Kind) r3.Vec {
	a.tick.Lock()
	defer a.tick.Unlock()
	id, ok := a.player()
	if !ok {
		return r3.Vec{}
	}
	return a.gestures.Output(id, kind)
}

// Status implements server.StatusProvider.
func (a *App) Status() server.Status {
	a.tick.Lock()
	identity, ok := a.tracker.Player()
	status := server.Status{
		Calibrated: ok,
		UserID:     identity.UserID,
		SlotIndex:  identity.SlotIndex,
	}
	if ok {
		status.Records = a.gestures.Records(identity.UserID)
	}
	a.tick.Unlock()

	status.Enabled = a.IsEnabled()
	state := a.vehicle.State()
	status.Vehicle = &state
	if a.recorder != nil {
		if id, ok := a.recorder.Active(); ok {
			status.Recording = id
		}
	}
	return status
}
