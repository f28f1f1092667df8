package filter

import (
	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

type holtState struct {
	raw      r3.Vec
	filtered r3.Vec
	trend    r3.Vec
	frames   int
}

// JointSmoother is a Holt double exponential filter over joint positions.
// Inferred joints get twice the jitter and deviation radii; a joint that is
// not tracked restarts its history.
type JointSmoother struct {
	params  SmoothingParams
	enabled bool
	history [skeleton.JointCount]holtState
}

// NewJointSmoother creates a smoother for the given profile.
func NewJointSmoother(profile Profile) *JointSmoother {
	return &JointSmoother{
		params:  profile.Params(),
		enabled: profile != ProfileNone,
	}
}

// Reset drops the filter history.
func (s *JointSmoother) Reset() {
	s.history = [skeleton.JointCount]holtState{}
}

// Filter smooths positions in place.
func (s *JointSmoother) Filter(positions *[skeleton.JointCount]r3.Vec, states *[skeleton.JointCount]skeleton.TrackingState) {
	if !s.enabled {
		return
	}

	for j := range positions {
		h := &s.history[j]
		if states[j] == skeleton.NotTracked {
			h.frames = 0
			continue
		}

		p := s.params
		if states[j] == skeleton.Inferred {
			p.JitterRadius *= 2
			p.MaxDeviationRadius *= 2
		}

		positions[j] = h.update(positions[j], p)
	}
}

func (h *holtState) update(raw r3.Vec, p SmoothingParams) r3.Vec {
	var filtered, trend r3.Vec

	switch h.frames {
	case 0:
		filtered = raw
		h.frames++
	case 1:
		filtered = r3.Scale(0.5, r3.Add(raw, h.raw))
		diff := r3.Sub(filtered, h.filtered)
		trend = r3.Add(r3.Scale(p.Correction, diff), r3.Scale(1-p.Correction, h.trend))
		h.frames++
	default:
		// Snap small movements towards the previous estimate to suppress jitter
		input := raw
		diff := r3.Norm(r3.Sub(raw, h.filtered))
		if diff <= p.JitterRadius && p.JitterRadius > 0 {
			w := diff / p.JitterRadius
			input = r3.Add(r3.Scale(w, raw), r3.Scale(1-w, h.filtered))
		}

		filtered = r3.Add(r3.Scale(1-p.Smoothing, input), r3.Scale(p.Smoothing, r3.Add(h.filtered, h.trend)))
		step := r3.Sub(filtered, h.filtered)
		trend = r3.Add(r3.Scale(p.Correction, step), r3.Scale(1-p.Correction, h.trend))
	}

	predicted := r3.Add(filtered, r3.Scale(p.Prediction, trend))

	// Never stray further than the deviation radius from the raw sample
	dev := r3.Norm(r3.Sub(predicted, raw))
	if dev > p.MaxDeviationRadius && p.MaxDeviationRadius > 0 {
		w := p.MaxDeviationRadius / dev
		predicted = r3.Add(r3.Scale(w, predicted), r3.Scale(1-w, raw))
	}

	h.raw = raw
	h.filtered = filtered
	h.trend = trend

	return predicted
}
