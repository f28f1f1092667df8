package filter

import (
	"math"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// torsoRadius is the radius of the cylinder around the spine that arm joints may not enter.
const torsoRadius = 0.12

var armJoints = []skeleton.Joint{
	skeleton.ElbowLeft, skeleton.WristLeft, skeleton.HandLeft,
	skeleton.ElbowRight, skeleton.WristRight, skeleton.HandRight,
}

// SelfIntersectionConstraint keeps arm joints from passing through the torso.
// An arm joint inside the torso cylinder and behind the spine is pushed
// forward onto the front of the cylinder.
type SelfIntersectionConstraint struct{}

// Constrain corrects positions in place.
func (SelfIntersectionConstraint) Constrain(positions *[skeleton.JointCount]r3.Vec, states *[skeleton.JointCount]skeleton.TrackingState) {
	if states[skeleton.HipCenter] == skeleton.NotTracked || states[skeleton.ShoulderCenter] == skeleton.NotTracked {
		return
	}

	bottom := positions[skeleton.HipCenter]
	top := positions[skeleton.ShoulderCenter]
	axis := r3.Sub(top, bottom)
	length := r3.Norm(axis)
	if length == 0 {
		return
	}
	axis = r3.Scale(1/length, axis)

	for _, j := range armJoints {
		if states[j] == skeleton.NotTracked {
			continue
		}

		p := positions[j]
		along := r3.Dot(r3.Sub(p, bottom), axis)
		if along < 0 || along > length {
			continue
		}

		closest := r3.Add(bottom, r3.Scale(along, axis))
		radial := r3.Sub(p, closest)
		if r3.Norm(radial) >= torsoRadius || p.Z <= closest.Z {
			continue
		}

		// Place the joint on the front of the cylinder, keeping its lateral offset
		lateral := math.Min(math.Abs(radial.X), torsoRadius)
		depth := math.Sqrt(torsoRadius*torsoRadius - lateral*lateral)
		positions[j].Z = closest.Z - depth
	}
}
