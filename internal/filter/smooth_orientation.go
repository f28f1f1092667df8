package filter

import (
	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/num/quat"
)

// DefaultOrientationSmoothing is the weight kept from the previous orientation.
const DefaultOrientationSmoothing = 0.5

// OrientationFilter smooths joint orientations over time by blending
// quaternions with the previous tick (normalized lerp).
type OrientationFilter struct {
	smoothing float64
	history   [skeleton.JointCount]quat.Number
	valid     [skeleton.JointCount]bool
}

// NewOrientationFilter creates a filter; smoothing in [0,1) is the weight of
// the previous orientation.
func NewOrientationFilter(smoothing float64) *OrientationFilter {
	return &OrientationFilter{smoothing: min(max(smoothing, 0), 0.99)}
}

// Reset drops the filter history.
func (f *OrientationFilter) Reset() {
	f.history = [skeleton.JointCount]quat.Number{}
	f.valid = [skeleton.JointCount]bool{}
}

// Filter smooths orientations in place. Untracked joints restart their history.
func (f *OrientationFilter) Filter(orientations *[skeleton.JointCount]Orientation, tracked *[skeleton.JointCount]bool) {
	for j := range orientations {
		if !tracked[j] {
			f.valid[j] = false
			continue
		}

		cur := orientations[j].Quat()
		if !f.valid[j] {
			f.history[j] = cur
			f.valid[j] = true
			continue
		}

		prev := f.history[j]
		if quatDot(prev, cur) < 0 {
			cur = quat.Scale(-1, cur)
		}

		blended := normalizeQuat(quat.Add(quat.Scale(f.smoothing, prev), quat.Scale(1-f.smoothing, cur)))
		f.history[j] = blended
		orientations[j] = OrientationFromQuat(blended)
	}
}

func quatDot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}
