package filter

import (
	"math"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// JointLimit bounds the swing of a bone away from its parent bone.
type JointLimit struct {
	Joint skeleton.Joint
	// MaxSwing is the largest allowed angle between the bone and its parent bone, in degrees.
	MaxSwing float64
}

// OrientationConstraint clamps derived orientations to anatomical limits.
type OrientationConstraint struct {
	limits []JointLimit
}

// NewOrientationConstraint creates an empty constraint set.
func NewOrientationConstraint() *OrientationConstraint {
	return &OrientationConstraint{}
}

// AddLimit appends a joint limit. Limits apply in insertion order, so
// parents should be added before their children.
func (c *OrientationConstraint) AddLimit(j skeleton.Joint, maxSwing float64) {
	c.limits = append(c.limits, JointLimit{Joint: j, MaxSwing: maxSwing})
}

// AddDefaultLimits installs the standard human joint limits.
func (c *OrientationConstraint) AddDefaultLimits() {
	c.AddLimit(skeleton.ShoulderCenter, 40)
	c.AddLimit(skeleton.Head, 45)
	c.AddLimit(skeleton.ElbowLeft, 160)
	c.AddLimit(skeleton.WristLeft, 150)
	c.AddLimit(skeleton.HandLeft, 90)
	c.AddLimit(skeleton.ElbowRight, 160)
	c.AddLimit(skeleton.WristRight, 150)
	c.AddLimit(skeleton.HandRight, 90)
	c.AddLimit(skeleton.KneeLeft, 150)
	c.AddLimit(skeleton.AnkleLeft, 150)
	c.AddLimit(skeleton.FootLeft, 120)
	c.AddLimit(skeleton.KneeRight, 150)
	c.AddLimit(skeleton.AnkleRight, 150)
	c.AddLimit(skeleton.FootRight, 120)
}

// Limits returns the configured limits.
func (c *OrientationConstraint) Limits() []JointLimit {
	return append([]JointLimit(nil), c.limits...)
}

// Constrain rotates any bone that swings past its limit back onto the limit.
func (c *OrientationConstraint) Constrain(orientations *[skeleton.JointCount]Orientation, tracked *[skeleton.JointCount]bool) {
	for _, limit := range c.limits {
		j := limit.Joint
		parent := j.Parent()
		if !j.Valid() || !tracked[j] || !tracked[parent] {
			continue
		}

		child := orientations[j].Y
		ref := orientations[parent].Y
		cos := math.Max(-1, math.Min(1, r3.Cos(ref, child)))
		angle := math.Acos(cos) * 180 / math.Pi
		if angle <= limit.MaxSwing {
			continue
		}

		axis := r3.Cross(ref, child)
		if r3.Norm(axis) < 1e-9 {
			continue
		}
		excess := (angle - limit.MaxSwing) * math.Pi / 180
		orientations[j] = orientations[j].Rotate(-excess, r3.Unit(axis))
	}
}
