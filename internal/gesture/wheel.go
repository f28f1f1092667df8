package gesture

import (
	"math"
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// wheelTimeout cancels the wheel when it has not turned for this long.
	wheelTimeout       = 150 * time.Millisecond
	wheelMinGrip       = 0.3
	wheelMaxGrip       = 0.7
	wheelGripTolerance = 0.1
	wheelStartProgress = 0.3
	wheelTurnProgress  = 0.7
)

var wheelJoints = []skeleton.Joint{
	skeleton.HandLeft, skeleton.HandRight, skeleton.ElbowLeft, skeleton.ElbowRight,
	skeleton.ShoulderCenter, skeleton.HipCenter, skeleton.Head,
}

// wheelGrip returns the hand-to-hand vector when both hands hold an
// imaginary steering wheel: both at band height and below the head, at
// least one raised above its elbow, with a plausible grip width.
func wheelGrip(in *Input) (r3.Vec, bool) {
	if !in.tracked(wheelJoints...) {
		return r3.Vec{}, false
	}

	band := BandOf(&in.Pose)
	left, right := in.pos(skeleton.HandLeft), in.pos(skeleton.HandRight)
	head := in.pos(skeleton.Head).Y

	if !band.InHeight(left) || !band.InHeight(right) {
		return r3.Vec{}, false
	}
	if left.Y <= in.pos(skeleton.ElbowLeft).Y && right.Y <= in.pos(skeleton.ElbowRight).Y {
		return r3.Vec{}, false
	}
	if left.Y >= head || right.Y >= head {
		return r3.Vec{}, false
	}

	grip := r3.Sub(right, left)
	dist := r3.Norm(grip)
	return grip, dist >= wheelMinGrip && dist < wheelMaxGrip
}

// WheelAngle returns the angle in degrees between the reference grip and
// the current one, positive when the grip tilted upwards.
func WheelAngle(ref, cur r3.Vec) float64 {
	if r3.Norm(ref) == 0 || r3.Norm(cur) == 0 {
		return 0
	}
	cos := math.Max(-1, math.Min(1, r3.Cos(ref, cur)))
	angle := math.Acos(cos) * 180 / math.Pi
	if cur.Y-ref.Y < 0 {
		return -angle
	}
	return angle
}

func wheelStart(rec Record, in Input) Record {
	grip, ok := wheelGrip(&in)
	if !ok {
		return rec
	}

	rec = rec.begin(in.Now, skeleton.HandRight, in.pos(skeleton.HandRight))
	rec.TagVector = grip
	rec.TagFloat = r3.Norm(grip)
	rec.Output.Z = 0
	rec.Progress = wheelStartProgress
	return rec
}

// wheelTurn follows the wheel while it keeps turning. It never completes;
// each accepted tick re-arms the timeout and updates the angle.
func wheelTurn(rec Record, in Input) Record {
	if in.Now.Sub(rec.Timestamp) >= wheelTimeout {
		return rec.cancel()
	}

	grip, ok := wheelGrip(&in)
	if !ok {
		return rec
	}
	dist := r3.Norm(grip)
	if math.Abs(dist-rec.TagFloat) >= wheelGripTolerance {
		return rec
	}

	rec.Output.Z = WheelAngle(rec.TagVector, grip)
	rec.Timestamp = in.Now
	rec.TagFloat = dist
	rec.Progress = wheelTurnProgress
	return rec
}
