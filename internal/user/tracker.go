// Package user selects and calibrates the single player among the bodies
// reported by the sensor and follows it until it is lost.
package user

import (
	"log"
	"math"

	"github.com/ayusman/abhinaya/internal/filter"
	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
)

// Notifier is told when the player is bound and released.
type Notifier interface {
	UserDetected(userID uint32)
	UserLost(userID uint32)
}

// Config configures a Tracker.
type Config struct {
	// DetectClosestUser restricts calibration to the body closest to the sensor.
	DetectClosestUser bool
	// MinUserDistance and MaxUserDistance gate the player's data, in metres.
	// A MaxUserDistance of 0 means unbounded.
	MinUserDistance float64
	MaxUserDistance float64
	// CalibrationPose must be completed before a body becomes the player.
	// None calibrates immediately.
	CalibrationPose gesture.Kind
	// PlayerGestures are tracked for the player once calibrated.
	PlayerGestures []gesture.Kind
}

// Identity is the bound player.
type Identity struct {
	UserID     uint32 `json:"user_id"`
	SlotIndex  int    `json:"slot_index"`
	Calibrated bool   `json:"calibrated"`
}

// Result is the outcome of one SelectAndCalibrate call.
type Result struct {
	// Identity is valid when Bound is true.
	Identity Identity
	Bound    bool
	// Slot is the player's slot when it is within the distance range, else nil.
	Slot *skeleton.Slot
}

// Tracker binds at most one player at a time.
type Tracker struct {
	cfg         Config
	pre         *filter.Preprocessor
	gestures    *gesture.Manager
	notify      Notifier
	player      Identity
	calibration gesture.Record
}

// NewTracker creates a Tracker. pre supplies the raw poses used for
// calibration and is reset whenever the player changes.
func NewTracker(cfg Config, pre *filter.Preprocessor, gestures *gesture.Manager, notify Notifier) *Tracker {
	return &Tracker{
		cfg:      cfg,
		pre:      pre,
		gestures: gestures,
		notify:   notify,
	}
}

// SetConfig replaces the configuration. The current player stays bound.
func (t *Tracker) SetConfig(cfg Config) {
	t.cfg = cfg
	t.calibration = gesture.Record{}
}

// SetPreprocessor swaps the preprocessor, for example after a config change.
func (t *Tracker) SetPreprocessor(pre *filter.Preprocessor) {
	t.pre = pre
}

// Player returns the bound player.
func (t *Tracker) Player() (Identity, bool) {
	return t.player, t.player.Calibrated
}

// CalibrationRecord returns the state of the calibration pose in progress.
func (t *Tracker) CalibrationRecord() gesture.Record {
	return t.calibration
}

// SelectAndCalibrate processes one frame: it releases a player whose slot
// disappeared, calibrates a new player when none is bound, and returns the
// player's slot when its distance is within range.
func (t *Tracker) SelectAndCalibrate(frame *skeleton.Frame) Result {
	if t.player.Calibrated {
		idx := frame.Find(t.player.UserID)
		if idx < 0 {
			t.release()
		} else {
			t.player.SlotIndex = idx
		}
	}

	if !t.player.Calibrated {
		for i := range frame.Slots {
			slot := &frame.Slots[i]
			if !slot.IsTracked() {
				continue
			}
			if t.cfg.DetectClosestUser && !t.isClosest(frame, i) {
				continue
			}
			if t.calibrate(slot, i, frame) {
				break
			}
		}
	}

	if !t.player.Calibrated {
		return Result{}
	}

	res := Result{Identity: t.player, Bound: true}
	slot := &frame.Slots[t.player.SlotIndex]
	if t.inRange(slot) {
		res.Slot = slot
	}
	return res
}

// ClearUsers releases the player so that calibration starts over.
func (t *Tracker) ClearUsers() {
	if t.player.Calibrated {
		t.release()
	}
	t.calibration = gesture.Record{}
	t.pre.Reset()
}

func (t *Tracker) depth(slot *skeleton.Slot) float64 {
	return math.Abs(t.pre.WorldPosition(slot.Position).Z)
}

func (t *Tracker) isClosest(frame *skeleton.Frame, i int) bool {
	z := t.depth(&frame.Slots[i])
	for j := range frame.Slots {
		if j == i || !frame.Slots[j].IsTracked() {
			continue
		}
		if t.depth(&frame.Slots[j]) < z {
			return false
		}
	}
	return true
}

func (t *Tracker) inRange(slot *skeleton.Slot) bool {
	z := t.depth(slot)
	if z < t.cfg.MinUserDistance {
		return false
	}
	return t.cfg.MaxUserDistance <= 0 || z <= t.cfg.MaxUserDistance
}

// calibrate runs the calibration pose for a candidate and binds it on success.
func (t *Tracker) calibrate(slot *skeleton.Slot, index int, frame *skeleton.Frame) bool {
	if !t.poseComplete(slot, frame) {
		return false
	}

	t.player = Identity{UserID: slot.ID, SlotIndex: index, Calibrated: true}
	t.calibration = gesture.Record{}

	for _, kind := range t.cfg.PlayerGestures {
		if !t.gestures.StartTracking(slot.ID, kind) {
			log.Printf("Cannot track gesture %v for user %d", kind, slot.ID)
		}
	}
	if t.notify != nil {
		t.notify.UserDetected(slot.ID)
	}
	t.pre.Reset()

	log.Printf("Player calibrated: user %d", slot.ID)
	return true
}

func (t *Tracker) poseComplete(slot *skeleton.Slot, frame *skeleton.Frame) bool {
	if t.cfg.CalibrationPose == gesture.None {
		return true
	}

	rec := t.calibration
	if rec.UserID != slot.ID || rec.Kind != t.cfg.CalibrationPose || rec.Cancelled {
		rec = gesture.NewRecord(slot.ID, t.cfg.CalibrationPose)
	}

	rec = gesture.Advance(rec, gesture.Input{Now: frame.Timestamp, Pose: t.pre.Raw(slot)})
	t.calibration = rec
	return rec.Complete
}

func (t *Tracker) release() {
	id := t.player.UserID
	t.player = Identity{}
	t.gestures.ClearAll(id)
	if t.notify != nil {
		t.notify.UserLost(id)
	}
	log.Printf("User lost: %d, waiting for users", id)
}
