package filter

import "github.com/ayusman/abhinaya/internal/skeleton"

// TrackedRule decides whether a joint's tracking state counts as tracked.
type TrackedRule struct {
	// IgnoreInferred counts only fully tracked joints.
	IgnoreInferred bool
	// Seated adds the knees and hips to the joints that must be fully tracked.
	Seated bool
}

// MustBeTracked reports whether joint j needs a Tracked state even when
// inferred joints are accepted.
func (r TrackedRule) MustBeTracked(j skeleton.Joint) bool {
	switch j {
	case skeleton.AnkleLeft, skeleton.FootLeft, skeleton.AnkleRight, skeleton.FootRight:
		return true
	case skeleton.KneeLeft, skeleton.KneeRight, skeleton.HipLeft, skeleton.HipRight:
		return r.Seated
	}
	return false
}

// Tracked applies the rule to a single joint.
func (r TrackedRule) Tracked(j skeleton.Joint, state skeleton.TrackingState) bool {
	if r.IgnoreInferred || r.MustBeTracked(j) {
		return state == skeleton.Tracked
	}
	return state != skeleton.NotTracked
}

// Apply evaluates the rule for every joint of a slot.
func (r TrackedRule) Apply(states *[skeleton.JointCount]skeleton.TrackingState) [skeleton.JointCount]bool {
	var out [skeleton.JointCount]bool
	for j := range states {
		out[j] = r.Tracked(skeleton.Joint(j), states[j])
	}
	return out
}

// Debouncer requires two consecutive ticks of agreement before a joint
// counts as tracked.
type Debouncer struct {
	prev [skeleton.JointCount]bool
}

// Update returns prev AND cur for every joint and remembers cur.
func (d *Debouncer) Update(cur [skeleton.JointCount]bool) [skeleton.JointCount]bool {
	var out [skeleton.JointCount]bool
	for j := range cur {
		out[j] = d.prev[j] && cur[j]
		d.prev[j] = cur[j]
	}
	return out
}

// Previous returns the raw tracked flags of the last tick.
func (d *Debouncer) Previous() [skeleton.JointCount]bool {
	return d.prev
}

// Reset forgets the previous tick.
func (d *Debouncer) Reset() {
	d.prev = [skeleton.JointCount]bool{}
}
