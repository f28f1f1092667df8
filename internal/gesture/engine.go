package gesture

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Input is the data a phase function sees for one tick.
type Input struct {
	Now  time.Time
	Pose skeleton.Pose
}

func (in *Input) tracked(joints ...skeleton.Joint) bool {
	return in.Pose.IsTracked(joints...)
}

func (in *Input) pos(j skeleton.Joint) r3.Vec {
	return in.Pose.Position(j)
}

// PhaseFunc advances a record that is in a given phase. It returns the
// updated record and never mutates shared state.
type PhaseFunc func(rec Record, in Input) Record

// Definition describes a gesture kind.
type Definition struct {
	// Name is the snake_case name used in configuration.
	Name string
	// Phases is indexed by Record.Phase.
	Phases []PhaseFunc
	// Conflicts are the kinds that suppress this gesture by default.
	Conflicts []Kind
}

var registry = struct {
	mu   sync.RWMutex
	defs map[Kind]Definition
}{defs: make(map[Kind]Definition)}

var (
	// ErrInvalidKind is returned when registering the None kind.
	ErrInvalidKind = errors.New("invalid gesture kind")
	// ErrNoPhases is returned when registering a definition without phases.
	ErrNoPhases = errors.New("gesture definition has no phases")
)

// Register adds or replaces the definition of a gesture kind.
func Register(kind Kind, def Definition) error {
	if kind == None {
		return ErrInvalidKind
	}
	if len(def.Phases) == 0 {
		return fmt.Errorf("register %q: %w", def.Name, ErrNoPhases)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.defs[kind] = def
	return nil
}

func lookup(kind Kind) (Definition, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	def, ok := registry.defs[kind]
	return def, ok
}

// Kinds returns every registered gesture kind in ascending order.
func Kinds() []Kind {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	kinds := make([]Kind, 0, len(registry.defs))
	for k := range registry.defs {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Advance runs one tick of the record's state machine. Complete and
// cancelled records are returned unchanged until they are reset.
func Advance(rec Record, in Input) Record {
	if rec.Complete || rec.Cancelled {
		return rec
	}

	def, ok := lookup(rec.Kind)
	if !ok || rec.Phase < 0 || rec.Phase >= len(def.Phases) {
		return rec
	}

	return def.Phases[rec.Phase](rec, in).sanitize()
}

func init() {
	builtins := map[Kind]Definition{
		SwipeLeft: {
			Name:      "swipe_left",
			Phases:    []PhaseFunc{swipeLeftStart, swipeLeftFinish},
			Conflicts: []Kind{SwipeRight, Wheel},
		},
		SwipeRight: {
			Name:      "swipe_right",
			Phases:    []PhaseFunc{swipeRightStart, swipeRightFinish},
			Conflicts: []Kind{SwipeLeft, Wheel},
		},
		Wheel: {
			Name:      "wheel",
			Phases:    []PhaseFunc{wheelStart, wheelTurn},
			Conflicts: []Kind{SwipeLeft, SwipeRight},
		},
		RightAboveHead: {
			Name:   "right_above_head",
			Phases: []PhaseFunc{aboveHeadStart(skeleton.HandRight), aboveHeadHold(skeleton.HandRight)},
		},
		LeftAboveHead: {
			Name:   "left_above_head",
			Phases: []PhaseFunc{aboveHeadStart(skeleton.HandLeft), aboveHeadHold(skeleton.HandLeft)},
		},
	}
	for k, def := range builtins {
		if err := Register(k, def); err != nil {
			panic(err)
		}
	}
}
