package skeleton

import "gonum.org/v1/gonum/spatial/r3"

// neutralPose is a relaxed standing body in body-local metres, hip centre at the origin.
var neutralPose = [JointCount]r3.Vec{
	HipCenter:      {X: 0, Y: 0},
	Spine:          {X: 0, Y: 0.1},
	ShoulderCenter: {X: 0, Y: 0.45},
	Head:           {X: 0, Y: 0.65},
	ShoulderLeft:   {X: -0.2, Y: 0.45},
	ElbowLeft:      {X: -0.25, Y: 0.2},
	WristLeft:      {X: -0.27, Y: 0.0},
	HandLeft:       {X: -0.28, Y: -0.08},
	ShoulderRight:  {X: 0.2, Y: 0.45},
	ElbowRight:     {X: 0.25, Y: 0.2},
	WristRight:     {X: 0.27, Y: 0.0},
	HandRight:      {X: 0.28, Y: -0.08},
	HipLeft:        {X: -0.1, Y: -0.05},
	KneeLeft:       {X: -0.1, Y: -0.5},
	AnkleLeft:      {X: -0.1, Y: -0.9},
	FootLeft:       {X: -0.1, Y: -0.95, Z: -0.1},
	HipRight:       {X: 0.1, Y: -0.05},
	KneeRight:      {X: 0.1, Y: -0.5},
	AnkleRight:     {X: 0.1, Y: -0.9},
	FootRight:      {X: 0.1, Y: -0.95, Z: -0.1},
}

// StandingSlot returns a fully tracked slot for user id standing z metres
// from the sensor. It is used by tests and demo sources.
func StandingSlot(id uint32, z float64) Slot {
	slot := Slot{
		ID:       id,
		Position: r3.Vec{Z: z},
	}
	for j := Joint(0); j < JointCount; j++ {
		slot.Joints[j] = r3.Add(neutralPose[j], r3.Vec{Z: z})
		slot.States[j] = Tracked
	}
	return slot
}

// Move returns a copy of the slot with joint j moved to the body-local
// offset (x, y) from the hip centre, keeping the slot depth.
func (s Slot) Move(j Joint, x, y float64) Slot {
	if j.Valid() {
		s.Joints[j] = r3.Vec{X: x, Y: y, Z: s.Position.Z}
	}
	return s
}

// WithState returns a copy of the slot with the tracking state of joint j replaced.
func (s Slot) WithState(j Joint, state TrackingState) Slot {
	if j.Valid() {
		s.States[j] = state
	}
	return s
}

// StandingPose returns the fully tracked neutral pose in body-local coordinates.
func StandingPose() Pose {
	var p Pose
	for j := Joint(0); j < JointCount; j++ {
		p.Positions[j] = neutralPose[j]
		p.Tracked[j] = true
	}
	return p
}

// With returns a copy of the pose with joint j placed at (x, y, z).
func (p Pose) With(j Joint, x, y, z float64) Pose {
	if j.Valid() {
		p.Positions[j] = r3.Vec{X: x, Y: y, Z: z}
	}
	return p
}

// Untracked returns a copy of the pose with the given joints marked untracked.
func (p Pose) Untracked(joints ...Joint) Pose {
	for _, j := range joints {
		if j.Valid() {
			p.Tracked[j] = false
		}
	}
	return p
}
