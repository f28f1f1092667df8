// Package skeleton provides skeleton frame types and frame sources for body gesture recognition.
package skeleton

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Joint identifies a skeleton joint. The indices follow the 20-joint
// topology reported by depth sensors of the Kinect family.
type Joint int

// Skeleton joint indices.
const (
	HipCenter Joint = iota
	Spine
	ShoulderCenter
	Head
	ShoulderLeft
	ElbowLeft
	WristLeft
	HandLeft
	ShoulderRight
	ElbowRight
	WristRight
	HandRight
	HipLeft
	KneeLeft
	AnkleLeft
	FootLeft
	HipRight
	KneeRight
	AnkleRight
	FootRight
	JointCount
)

var jointNames = [JointCount]string{
	"HipCenter", "Spine", "ShoulderCenter", "Head",
	"ShoulderLeft", "ElbowLeft", "WristLeft", "HandLeft",
	"ShoulderRight", "ElbowRight", "WristRight", "HandRight",
	"HipLeft", "KneeLeft", "AnkleLeft", "FootLeft",
	"HipRight", "KneeRight", "AnkleRight", "FootRight",
}

// jointParents maps each joint to its parent. HipCenter is the root and is its own parent.
var jointParents = [JointCount]Joint{
	HipCenter, HipCenter, Spine, ShoulderCenter,
	ShoulderCenter, ShoulderLeft, ElbowLeft, WristLeft,
	ShoulderCenter, ShoulderRight, ElbowRight, WristRight,
	HipCenter, HipLeft, KneeLeft, AnkleLeft,
	HipCenter, HipRight, KneeRight, AnkleRight,
}

// Valid reports whether j is a joint of the topology.
func (j Joint) Valid() bool {
	return j >= 0 && j < JointCount
}

// String returns the joint name.
func (j Joint) String() string {
	if !j.Valid() {
		return fmt.Sprintf("Joint(%d)", int(j))
	}
	return jointNames[j]
}

// Parent returns the parent joint used for orientation derivation.
func (j Joint) Parent() Joint {
	if !j.Valid() {
		return HipCenter
	}
	return jointParents[j]
}

// TrackingState is the per-joint tracking confidence reported by the sensor.
type TrackingState int

const (
	// NotTracked means the joint position is unknown.
	NotTracked TrackingState = iota
	// Inferred means the sensor guessed the joint position.
	Inferred
	// Tracked means the joint was observed directly.
	Tracked
)

func (s TrackingState) String() string {
	switch s {
	case NotTracked:
		return "not-tracked"
	case Inferred:
		return "inferred"
	case Tracked:
		return "tracked"
	}
	return fmt.Sprintf("TrackingState(%d)", int(s))
}

// Pose holds cleaned joint positions together with their tracked flags.
type Pose struct {
	Positions [JointCount]r3.Vec `json:"positions"`
	Tracked   [JointCount]bool   `json:"tracked"`
}

// Position returns the position of joint j, or the zero vector for an invalid joint.
func (p *Pose) Position(j Joint) r3.Vec {
	if !j.Valid() {
		return r3.Vec{}
	}
	return p.Positions[j]
}

// IsTracked reports whether every given joint is tracked.
func (p *Pose) IsTracked(joints ...Joint) bool {
	for _, j := range joints {
		if !j.Valid() || !p.Tracked[j] {
			return false
		}
	}
	return true
}
