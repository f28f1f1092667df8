// Package vehicle maps player gestures to vehicle controls: a steering
// angle from the wheel gesture and a gear stick moved by above-head poses.
package vehicle

import (
	"log"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
)

// Gear stick limits.
const (
	MaxGear = 2
	MinGear = -1
)

// SteeringDeadZone is the wheel angle in degrees below which the car goes straight.
const SteeringDeadZone = 10.0

// State is a snapshot of the controls.
type State struct {
	// Angle is the last wheel angle in degrees.
	Angle float64 `json:"angle"`
	Gear  int     `json:"gear"`
}

// Steering returns 1 for a left turn, -1 for a right turn and 0 inside
// the dead zone.
func (s State) Steering() int {
	switch {
	case s.Angle < -SteeringDeadZone:
		return 1
	case s.Angle > SteeringDeadZone:
		return -1
	}
	return 0
}

// Controls is a gesture listener holding the vehicle state.
// It is safe for concurrent use.
type Controls struct {
	mu       sync.RWMutex
	state    State
	onChange func(State)
}

// NewControls returns controls in neutral.
func NewControls() *Controls {
	return &Controls{}
}

// State returns the current controls.
func (c *Controls) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// OnChange registers a callback invoked after every gear change.
func (c *Controls) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controls) update(fn func(*State) bool) {
	c.mu.Lock()
	changed := fn(&c.state)
	st, cb := c.state, c.onChange
	c.mu.Unlock()

	if changed && cb != nil {
		cb(st)
	}
}

// ShiftUp moves the gear stick forward, stopping at MaxGear.
func (c *Controls) ShiftUp() {
	c.update(func(s *State) bool {
		if s.Gear >= MaxGear {
			return false
		}
		s.Gear++
		return true
	})
}

// ShiftDown moves the gear stick back, stopping at MinGear.
func (c *Controls) ShiftDown() {
	c.update(func(s *State) bool {
		if s.Gear <= MinGear {
			return false
		}
		s.Gear--
		return true
	})
}

// Neutral centres the wheel and the gear stick.
func (c *Controls) Neutral() {
	c.update(func(s *State) bool {
		changed := s.Gear != 0
		*s = State{}
		return changed
	})
}

func (c *Controls) setAngle(angle float64) {
	c.mu.Lock()
	c.state.Angle = angle
	c.mu.Unlock()
}

func (c *Controls) OnUserDetected(userID uint32) {
	log.Printf("Driver %d ready", userID)
}

// OnUserLost returns the controls to neutral.
func (c *Controls) OnUserLost(userID uint32) {
	c.Neutral()
}

// OnGestureInProgress follows the wheel angle.
func (c *Controls) OnGestureInProgress(userID uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, output r3.Vec) {
	if kind == gesture.Wheel {
		c.setAngle(output.Z)
	}
}

// OnGestureCompleted shifts gears on above-head poses and restarts detection.
func (c *Controls) OnGestureCompleted(userID uint32, kind gesture.Kind, joint skeleton.Joint, output r3.Vec) bool {
	switch kind {
	case gesture.RightAboveHead:
		c.ShiftUp()
	case gesture.LeftAboveHead:
		c.ShiftDown()
	}
	return true
}

// OnGestureCancelled centres the wheel when it is let go and restarts detection.
func (c *Controls) OnGestureCancelled(userID uint32, kind gesture.Kind, joint skeleton.Joint) bool {
	if kind == gesture.Wheel {
		c.setAngle(0)
	}
	return true
}
