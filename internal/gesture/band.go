package gesture

import (
	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Band is the body-relative zone that gates swipe and wheel gestures.
type Band struct {
	Top, Bottom float64
	Left, Right float64
}

// bandJoints must be tracked for the band to be meaningful.
var bandJoints = []skeleton.Joint{
	skeleton.HipCenter, skeleton.ShoulderCenter, skeleton.HipLeft, skeleton.HipRight,
}

// BandOf derives the band from the torso: it spans from one torso height
// below the shoulders to half a torso height above them, between the hips.
func BandOf(p *skeleton.Pose) Band {
	shoulder := p.Position(skeleton.ShoulderCenter).Y
	size := shoulder - p.Position(skeleton.HipCenter).Y
	return Band{
		Top:    shoulder + size/2,
		Bottom: shoulder - size,
		Left:   p.Position(skeleton.HipLeft).X,
		Right:  p.Position(skeleton.HipRight).X,
	}
}

// Width returns the lateral extent of the band.
func (b Band) Width() float64 {
	return b.Right - b.Left
}

// InHeight reports whether v lies vertically inside the band.
func (b Band) InHeight(v r3.Vec) bool {
	return v.Y >= b.Bottom && v.Y <= b.Top
}

// screenPos maps a hand onto a shoulder-wide, torso-high box next to the
// hand's shoulder, clamped to [0,1]. ok is false when the torso is not tracked.
func screenPos(in *Input, hand skeleton.Joint) (x, y float64, ok bool) {
	if !in.tracked(hand, skeleton.HipCenter, skeleton.ShoulderCenter, skeleton.ShoulderLeft, skeleton.ShoulderRight) {
		return 0, 0, false
	}

	width := in.pos(skeleton.ShoulderRight).X - in.pos(skeleton.ShoulderLeft).X
	height := in.pos(skeleton.ShoulderCenter).Y - in.pos(skeleton.HipCenter).Y
	if width == 0 || height == 0 {
		return 0, 0, false
	}

	shoulder := skeleton.ShoulderRight
	if hand == skeleton.HandLeft {
		shoulder = skeleton.ShoulderLeft
	}
	originX := in.pos(shoulder).X - width/2
	originY := in.pos(skeleton.HipCenter).Y

	p := in.pos(hand)
	return clamp01((p.X - originX) / width), clamp01((p.Y - originY) / height), true
}
