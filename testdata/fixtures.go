// Package testdata generates skeleton frame sequences for tests.
package testdata

import (
	"math"
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
)

// FrameStep is the time between generated frames, about 30 fps.
const FrameStep = 33 * time.Millisecond

// Distance is how far from the sensor generated users stand, in metres.
const Distance = 2.0

// Start is the timestamp of the first generated frame.
var Start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Sequence accumulates frames at FrameStep intervals.
type Sequence struct {
	frames []skeleton.Frame
	next   time.Time
}

// NewSequence starts an empty sequence at Start.
func NewSequence() *Sequence {
	return &Sequence{next: Start}
}

// Add appends n frames holding the given slots.
func (s *Sequence) Add(n int, slots ...skeleton.Slot) *Sequence {
	for i := 0; i < n; i++ {
		frame := skeleton.Frame{
			Timestamp: s.next,
			Slots:     append([]skeleton.Slot(nil), slots...),
		}
		s.frames = append(s.frames, frame)
		s.next = s.next.Add(FrameStep)
	}
	return s
}

// Frames returns the generated frames.
func (s *Sequence) Frames() []skeleton.Frame {
	return s.frames
}

// Len returns the number of generated frames.
func (s *Sequence) Len() int {
	return len(s.frames)
}

// Standing returns a relaxed, fully tracked user.
func Standing(id uint32) skeleton.Slot {
	return skeleton.StandingSlot(id, Distance)
}

// RightHandUp returns a user holding the right hand well above the head.
func RightHandUp(id uint32) skeleton.Slot {
	return Standing(id).Move(skeleton.HandRight, 0.2, 0.9)
}

// LeftHandUp returns a user holding the left hand well above the head.
func LeftHandUp(id uint32) skeleton.Slot {
	return Standing(id).Move(skeleton.HandLeft, -0.2, 0.9)
}

// Grip returns a user holding an imaginary steering wheel turned by the
// given angle in degrees, positive when the right hand is higher.
func Grip(id uint32, degrees float64) skeleton.Slot {
	rad := degrees * math.Pi / 180
	dx, dy := 0.2*math.Cos(rad), 0.2*math.Sin(rad)
	return Standing(id).
		Move(skeleton.HandLeft, -dx, 0.3-dy).
		Move(skeleton.HandRight, dx, 0.3+dy)
}

// SwipeRight appends frames of the left hand sweeping across the body to
// the right at chest height.
func (s *Sequence) SwipeRight(id uint32) *Sequence {
	for _, x := range []float64{-0.05, -0.05, 0.0, 0.05, 0.15, 0.3} {
		s.Add(1, Standing(id).Move(skeleton.HandLeft, x, 0.3))
	}
	return s
}

// SwipeLeft mirrors SwipeRight with the right hand.
func (s *Sequence) SwipeLeft(id uint32) *Sequence {
	for _, x := range []float64{0.05, 0.05, 0.0, -0.05, -0.15, -0.3} {
		s.Add(1, Standing(id).Move(skeleton.HandRight, x, 0.3))
	}
	return s
}

// Turn appends frames of the wheel held level for two frames and then
// turned through each angle in turn.
func (s *Sequence) Turn(id uint32, degrees ...float64) *Sequence {
	s.Add(2, Grip(id, 0))
	for _, d := range degrees {
		s.Add(1, Grip(id, d))
	}
	return s
}
