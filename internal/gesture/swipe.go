package gesture

import (
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
)

const (
	swipeDeadline      = 1500 * time.Millisecond
	swipeStartProgress = 0.1
	// minBandWidth guards progress against a degenerate band.
	minBandWidth = 0.01
)

// swipeReady reports whether the hand and the band joints are tracked and
// the hand is at band height.
func swipeReady(in *Input, hand skeleton.Joint) (Band, bool) {
	joints := append([]skeleton.Joint{hand}, bandJoints...)
	if !in.tracked(joints...) {
		return Band{}, false
	}
	band := BandOf(&in.Pose)
	return band, band.InHeight(in.pos(hand))
}

func setScreenPos(rec Record, in *Input, hand skeleton.Joint) Record {
	if x, y, ok := screenPos(in, hand); ok {
		rec.Output.X = x
		rec.Output.Y = y
	}
	return rec
}

// SwipeLeft: the right hand enters the band right of the left hip and
// leaves it past the left hip.
func swipeLeftStart(rec Record, in Input) Record {
	hand := skeleton.HandRight
	band, ok := swipeReady(&in, hand)
	if !ok {
		return rec
	}

	x := in.pos(hand).X
	if x <= band.Right && x > band.Left {
		rec = rec.begin(in.Now, hand, in.pos(hand))
		rec.Progress = swipeStartProgress
		rec = setScreenPos(rec, &in, hand)
	}
	return rec
}

func swipeLeftFinish(rec Record, in Input) Record {
	if in.Now.Sub(rec.Timestamp) >= swipeDeadline {
		return rec.cancel()
	}

	hand := skeleton.HandRight
	band, ok := swipeReady(&in, hand)
	if !ok {
		return rec
	}
	rec = setScreenPos(rec, &in, hand)

	x := in.pos(hand).X
	switch {
	case x < band.Left:
		rec = rec.hold(in.Now, in.pos(rec.Joint), true, 0)
	case x <= band.Right:
		rec.Progress = 0
		if w := band.Width(); w > minBandWidth {
			rec.Progress = (band.Right - x) / w
		}
	}
	return rec
}

// SwipeRight mirrors SwipeLeft with the left hand.
func swipeRightStart(rec Record, in Input) Record {
	hand := skeleton.HandLeft
	band, ok := swipeReady(&in, hand)
	if !ok {
		return rec
	}

	x := in.pos(hand).X
	if x >= band.Left && x < band.Right {
		rec = rec.begin(in.Now, hand, in.pos(hand))
		rec.Progress = swipeStartProgress
		rec = setScreenPos(rec, &in, hand)
	}
	return rec
}

func swipeRightFinish(rec Record, in Input) Record {
	if in.Now.Sub(rec.Timestamp) >= swipeDeadline {
		return rec.cancel()
	}

	hand := skeleton.HandLeft
	band, ok := swipeReady(&in, hand)
	if !ok {
		return rec
	}
	rec = setScreenPos(rec, &in, hand)

	x := in.pos(hand).X
	switch {
	case x > band.Right:
		rec = rec.hold(in.Now, in.pos(rec.Joint), true, 0)
	case x >= band.Left:
		rec.Progress = 0
		if w := band.Width(); w > minBandWidth {
			rec.Progress = (x - band.Left) / w
		}
	}
	return rec
}
