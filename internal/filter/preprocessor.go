package filter

import (
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options configures a Preprocessor.
type Options struct {
	Transform              skeleton.SensorTransform
	Rule                   TrackedRule
	Smoothing              Profile
	ClippedLegs            bool
	SelfIntersection       bool
	OrientationConstraints bool
	OrientationSmoothing   bool
}

// Body is the cleaned state of the body being evaluated.
type Body struct {
	// Positions keeps the last tracked world position of every joint.
	Positions    [skeleton.JointCount]r3.Vec
	Tracked      [skeleton.JointCount]bool
	PrevTracked  [skeleton.JointCount]bool
	Orientations [skeleton.JointCount]Orientation
	Position     r3.Vec
	Orientation  Orientation
}

// Pose returns the joint positions and debounced tracked flags.
func (b *Body) Pose() skeleton.Pose {
	return skeleton.Pose{Positions: b.Positions, Tracked: b.Tracked}
}

// Preprocessor runs the per-tick filter chain for one body:
// sensor transform, joint smoothing, clipped legs, self-intersection,
// debounce, orientation derivation, constraints and orientation smoothing.
type Preprocessor struct {
	opts        Options
	smoother    *JointSmoother
	legs        *ClippedLegsFilter
	intersect   SelfIntersectionConstraint
	constraints *OrientationConstraint
	orientation *OrientationFilter
	debounce    Debouncer
	body        Body
	lastTick    time.Time
}

// NewPreprocessor creates a preprocessor with the given options.
func NewPreprocessor(opts Options) *Preprocessor {
	constraints := NewOrientationConstraint()
	constraints.AddDefaultLimits()

	p := &Preprocessor{
		opts:        opts,
		smoother:    NewJointSmoother(opts.Smoothing),
		legs:        NewClippedLegsFilter(),
		constraints: constraints,
		orientation: NewOrientationFilter(DefaultOrientationSmoothing),
	}
	p.resetBody()
	return p
}

// Options returns the active options.
func (p *Preprocessor) Options() Options {
	return p.opts
}

// Reset clears every stateful filter. Call it whenever the bound user changes.
func (p *Preprocessor) Reset() {
	p.smoother.Reset()
	p.legs.Reset()
	p.orientation.Reset()
	p.debounce.Reset()
	p.lastTick = time.Time{}
	p.resetBody()
}

func (p *Preprocessor) resetBody() {
	p.body = Body{Orientation: IdentityOrientation}
	for j := range p.body.Orientations {
		p.body.Orientations[j] = IdentityOrientation
	}
}

// Body returns the state produced by the last Process call.
func (p *Preprocessor) Body() Body {
	return p.body
}

// WorldPosition converts a sensor-space position into world space.
func (p *Preprocessor) WorldPosition(v r3.Vec) r3.Vec {
	return p.opts.Transform.Apply(v)
}

// Raw returns the slot's world-space joints with per-tick tracked flags,
// without debounce or any stateful filter.
func (p *Preprocessor) Raw(slot *skeleton.Slot) skeleton.Pose {
	var pose skeleton.Pose
	for j := range slot.Joints {
		pose.Positions[j] = p.opts.Transform.Apply(slot.Joints[j])
	}
	pose.Tracked = p.opts.Rule.Apply(&slot.States)
	return pose
}

// Process runs the filter chain on slot and returns the updated body.
func (p *Preprocessor) Process(slot *skeleton.Slot, now time.Time) Body {
	var dt time.Duration
	if !p.lastTick.IsZero() {
		dt = now.Sub(p.lastTick)
	}
	p.lastTick = now

	positions := [skeleton.JointCount]r3.Vec{}
	states := slot.States
	for j := range slot.Joints {
		positions[j] = p.opts.Transform.Apply(slot.Joints[j])
	}

	// Step 1: positional filters
	p.smoother.Filter(&positions, &states)
	if p.opts.ClippedLegs {
		p.legs.Filter(&positions, &states, dt)
	}
	if p.opts.SelfIntersection {
		p.intersect.Constrain(&positions, &states)
	}

	// Step 2: debounce and copy out tracked joints
	p.body.PrevTracked = p.debounce.Previous()
	p.body.Tracked = p.debounce.Update(p.opts.Rule.Apply(&states))
	for j := range positions {
		if p.body.Tracked[j] {
			p.body.Positions[j] = positions[j]
		}
	}
	p.body.Position = p.opts.Transform.Apply(slot.Position)

	// Step 3: orientations, smoothed after every positional correction
	p.body.Orientations = DeriveOrientations(&p.body.Positions, &p.body.Tracked)
	if p.opts.OrientationConstraints {
		p.constraints.Constrain(&p.body.Orientations, &p.body.Tracked)
	}
	if p.opts.OrientationSmoothing {
		p.orientation.Filter(&p.body.Orientations, &p.body.Tracked)
	}
	p.body.Orientation = p.body.Orientations[skeleton.HipCenter]

	return p.body
}
