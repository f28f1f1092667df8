// Package listener delivers gesture events to registered listeners.
package listener

import (
	"log"
	"sync"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// Listener receives user and gesture events.
type Listener interface {
	OnUserDetected(userID uint32)
	OnUserLost(userID uint32)
	OnGestureInProgress(userID uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, output r3.Vec)
	// OnGestureCompleted returns true to restart detection of all the user's gestures.
	OnGestureCompleted(userID uint32, kind gesture.Kind, joint skeleton.Joint, output r3.Vec) bool
	// OnGestureCancelled returns true to restart detection of the cancelled gesture.
	OnGestureCancelled(userID uint32, kind gesture.Kind, joint skeleton.Joint) bool
}

// Funcs adapts plain functions to a Listener. Nil fields are ignored and
// return false.
type Funcs struct {
	UserDetected func(userID uint32)
	UserLost     func(userID uint32)
	InProgress   func(userID uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, output r3.Vec)
	Completed    func(userID uint32, kind gesture.Kind, joint skeleton.Joint, output r3.Vec) bool
	Cancelled    func(userID uint32, kind gesture.Kind, joint skeleton.Joint) bool
}

func (f Funcs) OnUserDetected(userID uint32) {
	if f.UserDetected != nil {
		f.UserDetected(userID)
	}
}

func (f Funcs) OnUserLost(userID uint32) {
	if f.UserLost != nil {
		f.UserLost(userID)
	}
}

func (f Funcs) OnGestureInProgress(userID uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, output r3.Vec) {
	if f.InProgress != nil {
		f.InProgress(userID, kind, progress, joint, output)
	}
}

func (f Funcs) OnGestureCompleted(userID uint32, kind gesture.Kind, joint skeleton.Joint, output r3.Vec) bool {
	return f.Completed != nil && f.Completed(userID, kind, joint, output)
}

func (f Funcs) OnGestureCancelled(userID uint32, kind gesture.Kind, joint skeleton.Joint) bool {
	return f.Cancelled != nil && f.Cancelled(userID, kind, joint)
}

// ProgressThreshold is the smallest progress reported to listeners.
const ProgressThreshold = 0.1

// Registry holds listeners in registration order.
type Registry struct {
	mu        sync.RWMutex
	nextID    int
	listeners []entry
}

type entry struct {
	id int
	l  Listener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a listener and returns a function that unregisters it.
// Listeners are called in the order they were added.
func (r *Registry) Add(l Listener) (remove func()) {
	if l == nil {
		return func() {}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, entry{id: id, l: l})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.listeners {
			if e.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

func (r *Registry) snapshot() []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Listener, len(r.listeners))
	for i, e := range r.listeners {
		out[i] = e.l
	}
	return out
}

// UserDetected notifies every listener of a newly bound player.
func (r *Registry) UserDetected(userID uint32) {
	for _, l := range r.snapshot() {
		call(func() bool { l.OnUserDetected(userID); return false })
	}
}

// UserLost notifies every listener that the player was released.
func (r *Registry) UserLost(userID uint32) {
	for _, l := range r.snapshot() {
		call(func() bool { l.OnUserLost(userID); return false })
	}
}

// Gestures is the part of the gesture manager used by Dispatch.
type Gestures interface {
	Records(userID uint32) []gesture.Record
	Reset(userID uint32, kind gesture.Kind) bool
	ResetAll(userID uint32)
}

// Dispatch delivers the tick's gesture events for the player. Completed
// records go to OnGestureCompleted, cancelled ones to OnGestureCancelled
// and records with visible progress to OnGestureInProgress. A restart
// requested by a completion ends the dispatch for this tick.
func (r *Registry) Dispatch(g Gestures, userID uint32) {
	listeners := r.snapshot()

	for _, rec := range g.Records(userID) {
		switch {
		case rec.Complete:
			restart := false
			for _, l := range listeners {
				if call(func() bool { return l.OnGestureCompleted(userID, rec.Kind, rec.Joint, rec.Output) }) {
					restart = true
				}
			}
			if restart {
				// Every record of the user is rearmed, so nothing left
				// in this snapshot is current.
				g.ResetAll(userID)
				return
			}

		case rec.Cancelled:
			restart := false
			for _, l := range listeners {
				if call(func() bool { return l.OnGestureCancelled(userID, rec.Kind, rec.Joint) }) {
					restart = true
				}
			}
			if restart {
				g.Reset(userID, rec.Kind)
			}

		case rec.Progress >= ProgressThreshold:
			for _, l := range listeners {
				call(func() bool {
					l.OnGestureInProgress(userID, rec.Kind, rec.Progress, rec.Joint, rec.Output)
					return false
				})
			}
		}
	}
}

// call runs a listener callback, treating a panic as a false result.
func call(fn func() bool) (result bool) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("Listener panic: %v", err)
			result = false
		}
	}()
	return fn()
}
