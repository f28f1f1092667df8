package gesture

import (
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
)

const (
	// A hand has to clear the head by aboveHeadEnter to start and may sink
	// to aboveHeadStay while held, so the gesture does not flicker.
	aboveHeadEnter    = 0.1
	aboveHeadStay     = 0.05
	aboveHeadDuration = 100 * time.Millisecond
	aboveHeadProgress = 0.1
)

func handAboveHead(in *Input, hand skeleton.Joint, margin float64) bool {
	return in.tracked(hand, skeleton.Head) &&
		in.pos(hand).Y-in.pos(skeleton.Head).Y > margin
}

func aboveHeadStart(hand skeleton.Joint) PhaseFunc {
	return func(rec Record, in Input) Record {
		if !handAboveHead(&in, hand, aboveHeadEnter) {
			return rec
		}
		rec = rec.begin(in.Now, hand, in.pos(hand))
		rec.Progress = aboveHeadProgress
		return rec
	}
}

func aboveHeadHold(hand skeleton.Joint) PhaseFunc {
	return func(rec Record, in Input) Record {
		inPose := handAboveHead(&in, hand, aboveHeadStay)
		return rec.hold(in.Now, in.pos(rec.Joint), inPose, aboveHeadDuration)
	}
}
