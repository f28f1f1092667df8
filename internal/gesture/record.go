package gesture

import (
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Record is the tracking state of one gesture kind for one user.
type Record struct {
	UserID uint32 `json:"user_id"`
	Kind   Kind   `json:"kind"`
	// Phase advances within an attempt and returns to 0 on cancel.
	Phase int `json:"phase"`
	// Timestamp is the time of the last phase transition.
	Timestamp time.Time `json:"timestamp"`
	// Joint is the anchor joint and JointPos its position at the last transition.
	Joint    skeleton.Joint `json:"joint"`
	JointPos r3.Vec         `json:"joint_pos"`
	// Output carries gesture specific values: the wheel angle in Z,
	// normalized hand position in X and Y for swipes.
	Output    r3.Vec  `json:"output"`
	Progress  float64 `json:"progress"`
	Complete  bool    `json:"complete"`
	Cancelled bool    `json:"cancelled"`

	// Scratch values owned by the phase functions.
	TagFloat   float64 `json:"-"`
	TagVector  r3.Vec  `json:"-"`
	TagVector2 r3.Vec  `json:"-"`

	// Conflicts suppress this record while any of them has progress.
	Conflicts []Kind `json:"conflicts,omitempty"`
	// RetryAt is the earliest time the record may be evaluated after a reset.
	RetryAt time.Time `json:"retry_at"`
}

// NewRecord returns a fresh phase 0 record using the kind's default conflicts.
func NewRecord(userID uint32, kind Kind) Record {
	rec := Record{UserID: userID, Kind: kind}
	if def, ok := lookup(kind); ok && len(def.Conflicts) > 0 {
		rec.Conflicts = append([]Kind(nil), def.Conflicts...)
	}
	return rec
}

// Active reports whether the record is mid attempt.
func (r Record) Active() bool {
	return r.Phase > 0 && !r.Complete && !r.Cancelled
}

// reset returns the record at phase 0 with flags cleared, retrying at retryAt.
func (r Record) reset(retryAt time.Time) Record {
	r.Phase = 0
	r.Joint = 0
	r.Progress = 0
	r.Complete = false
	r.Cancelled = false
	r.RetryAt = retryAt
	return r
}

// begin records the anchor joint and moves to the next phase.
func (r Record) begin(now time.Time, joint skeleton.Joint, pos r3.Vec) Record {
	r.Joint = joint
	r.JointPos = pos
	r.Timestamp = now
	r.Phase++
	r.Cancelled = false
	return r
}

// cancel abandons the current attempt.
func (r Record) cancel() Record {
	r.Phase = 0
	r.Progress = 0
	r.Cancelled = true
	return r
}

// hold tracks a pose that has to stay valid for d. A pose that breaks
// cancels the attempt; one that lasts completes it.
func (r Record) hold(now time.Time, pos r3.Vec, inPose bool, d time.Duration) Record {
	if !inPose {
		return r.cancel()
	}

	elapsed := now.Sub(r.Timestamp)
	r.Progress = 1
	if d > 0 {
		r.Progress = clamp01(float64(elapsed) / float64(d))
	}

	if elapsed >= d {
		r.Timestamp = now
		r.JointPos = pos
		r.Phase++
		r.Complete = true
	}
	return r
}

// sanitize enforces the record invariants after a phase function ran.
func (r Record) sanitize() Record {
	r.Progress = clamp01(r.Progress)
	if r.Complete {
		r.Cancelled = false
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
