package skeleton

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Slot is one candidate body reported by the sensor in a frame.
// An ID of zero marks an empty slot.
type Slot struct {
	ID       uint32                    `json:"id"`
	Position r3.Vec                    `json:"position"`
	Joints   [JointCount]r3.Vec        `json:"joints"`
	States   [JointCount]TrackingState `json:"states"`
}

// IsTracked reports whether the slot holds a tracked body.
func (s *Slot) IsTracked() bool {
	return s.ID != 0
}

// Frame is a single tick of sensor output.
type Frame struct {
	Timestamp time.Time `json:"timestamp"`
	Slots     []Slot    `json:"slots"`
}

// Find returns the index of the slot tracking the given user, or -1.
func (f *Frame) Find(userID uint32) int {
	if f == nil || userID == 0 {
		return -1
	}
	for i := range f.Slots {
		if f.Slots[i].ID == userID {
			return i
		}
	}
	return -1
}

// TrackedCount returns the number of non-empty slots.
func (f *Frame) TrackedCount() int {
	if f == nil {
		return 0
	}
	n := 0
	for i := range f.Slots {
		if f.Slots[i].IsTracked() {
			n++
		}
	}
	return n
}
