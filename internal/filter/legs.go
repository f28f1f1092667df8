package filter

import (
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// legBlendTime is how long a leg joint takes to fade fully onto its
// reconstructed position once the sensor loses it.
const legBlendTime = 250 * time.Millisecond

// legChains lists leg joints from hip down, each with the offset from its
// parent used before any good sample has been seen.
var legChains = []struct {
	joint  skeleton.Joint
	offset r3.Vec
}{
	{skeleton.KneeLeft, r3.Vec{Y: -0.45}},
	{skeleton.AnkleLeft, r3.Vec{Y: -0.4}},
	{skeleton.FootLeft, r3.Vec{Y: -0.05, Z: -0.1}},
	{skeleton.KneeRight, r3.Vec{Y: -0.45}},
	{skeleton.AnkleRight, r3.Vec{Y: -0.4}},
	{skeleton.FootRight, r3.Vec{Y: -0.05, Z: -0.1}},
}

// ClippedLegsFilter repairs legs that leave the sensor's field of view,
// typically when the user is seated close to it. Lost leg joints blend
// over time onto a reconstruction built from the last good bone offsets.
type ClippedLegsFilter struct {
	offsets [skeleton.JointCount]r3.Vec
	known   [skeleton.JointCount]bool
	weight  [skeleton.JointCount]float64
}

// NewClippedLegsFilter creates a clipped legs filter.
func NewClippedLegsFilter() *ClippedLegsFilter {
	return &ClippedLegsFilter{}
}

// Reset drops the remembered leg shape.
func (f *ClippedLegsFilter) Reset() {
	*f = ClippedLegsFilter{}
}

// Filter corrects the leg joints in place. dt is the time since the previous tick.
func (f *ClippedLegsFilter) Filter(positions *[skeleton.JointCount]r3.Vec, states *[skeleton.JointCount]skeleton.TrackingState, dt time.Duration) {
	step := 1.0
	if dt > 0 && dt < legBlendTime {
		step = float64(dt) / float64(legBlendTime)
	}

	for _, link := range legChains {
		j := link.joint
		parent := j.Parent()

		if states[j] == skeleton.Tracked && states[parent] == skeleton.Tracked {
			f.offsets[j] = r3.Sub(positions[j], positions[parent])
			f.known[j] = true
			f.weight[j] = max(0, f.weight[j]-step)
		} else {
			f.weight[j] = min(1, f.weight[j]+step)
		}

		if f.weight[j] == 0 {
			continue
		}

		offset := link.offset
		if f.known[j] {
			offset = f.offsets[j]
		}

		// The parent has already been corrected, so the chain stays connected
		target := r3.Add(positions[parent], offset)
		w := f.weight[j]
		positions[j] = r3.Add(r3.Scale(1-w, positions[j]), r3.Scale(w, target))
		if states[j] == skeleton.NotTracked {
			states[j] = skeleton.Inferred
		}
	}
}
