package listener

import (
	"fmt"
	"testing"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

type fakeGestures struct {
	records  []gesture.Record
	resets   []gesture.Kind
	resetAll int
}

func (f *fakeGestures) Records(userID uint32) []gesture.Record {
	var out []gesture.Record
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

func (f *fakeGestures) Reset(userID uint32, kind gesture.Kind) bool {
	f.resets = append(f.resets, kind)
	return true
}

func (f *fakeGestures) ResetAll(userID uint32) {
	f.resetAll++
}

// logger records every callback as a string, tagged with its name.
func logger(name string, log *[]string, restart bool) Funcs {
	return Funcs{
		UserDetected: func(id uint32) { *log = append(*log, fmt.Sprintf("%s detected %d", name, id)) },
		UserLost:     func(id uint32) { *log = append(*log, fmt.Sprintf("%s lost %d", name, id)) },
		InProgress: func(id uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, out r3.Vec) {
			*log = append(*log, fmt.Sprintf("%s progress %v %.1f %v", name, kind, progress, joint))
		},
		Completed: func(id uint32, kind gesture.Kind, joint skeleton.Joint, out r3.Vec) bool {
			*log = append(*log, fmt.Sprintf("%s completed %v %v", name, kind, joint))
			return restart
		},
		Cancelled: func(id uint32, kind gesture.Kind, joint skeleton.Joint) bool {
			*log = append(*log, fmt.Sprintf("%s cancelled %v", name, kind))
			return restart
		},
	}
}

func TestRegistry_DispatchOrder(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Add(logger("a", &calls, false))
	r.Add(logger("b", &calls, false))

	g := &fakeGestures{records: []gesture.Record{
		{UserID: 1, Kind: gesture.RightAboveHead, Complete: true, Progress: 1, Joint: skeleton.HandRight},
		{UserID: 1, Kind: gesture.SwipeLeft, Cancelled: true, Joint: skeleton.HandRight},
		{UserID: 1, Kind: gesture.Wheel, Progress: 0.7, Joint: skeleton.HandRight},
		{UserID: 1, Kind: gesture.SwipeRight, Progress: 0.05},
		{UserID: 2, Kind: gesture.Wheel, Progress: 0.7},
	}}

	r.Dispatch(g, 1)

	want := []string{
		"a completed right_above_head HandRight",
		"b completed right_above_head HandRight",
		"a cancelled swipe_left",
		"b cancelled swipe_left",
		"a progress wheel 0.7 HandRight",
		"b progress wheel 0.7 HandRight",
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if g.resetAll != 0 || len(g.resets) != 0 {
		t.Error("no listener asked for a restart")
	}
}

func TestRegistry_DispatchRestart(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Add(logger("a", &calls, false))
	r.Add(logger("b", &calls, true))

	g := &fakeGestures{records: []gesture.Record{
		{UserID: 1, Kind: gesture.RightAboveHead, Complete: true},
		{UserID: 1, Kind: gesture.Wheel, Cancelled: true},
	}}
	r.Dispatch(g, 1)

	if g.resetAll != 1 {
		t.Errorf("ResetAll called %d times, want 1", g.resetAll)
	}
	if len(g.resets) != 0 {
		t.Errorf("records after a full restart were still dispatched: %v", g.resets)
	}
	want := []string{"a completed right_above_head HipCenter", "b completed right_above_head HipCenter"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_DispatchCancelledRestart(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Add(logger("a", &calls, true))

	g := &fakeGestures{records: []gesture.Record{
		{UserID: 1, Kind: gesture.SwipeLeft, Cancelled: true},
		{UserID: 1, Kind: gesture.Wheel, Cancelled: true},
	}}
	r.Dispatch(g, 1)

	if diff := cmp.Diff([]gesture.Kind{gesture.SwipeLeft, gesture.Wheel}, g.resets); diff != "" {
		t.Errorf("resets mismatch (-want +got):\n%s", diff)
	}
	if g.resetAll != 0 {
		t.Error("a cancellation restarts only its own record")
	}
}

func TestRegistry_DispatchTwoCompletions(t *testing.T) {
	m := gesture.NewManager(gesture.ManagerConfig{})
	m.StartTracking(1, gesture.RightAboveHead)
	m.StartTracking(1, gesture.LeftAboveHead)

	var completed []gesture.Kind
	r := NewRegistry()
	r.Add(Funcs{Completed: func(_ uint32, kind gesture.Kind, _ skeleton.Joint, _ r3.Vec) bool {
		completed = append(completed, kind)
		return true
	}})

	// Both poses complete in the same tick; the first restart rearms the second.
	g := &completingGestures{Manager: m}
	r.Dispatch(g, 1)

	if diff := cmp.Diff([]gesture.Kind{gesture.RightAboveHead}, completed); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}
	for _, kind := range []gesture.Kind{gesture.RightAboveHead, gesture.LeftAboveHead} {
		if m.IsComplete(1, kind, false) {
			t.Errorf("%v still complete after the restart", kind)
		}
	}
}

// completingGestures reports every record of the manager as complete
// until the manager resets them.
type completingGestures struct {
	*gesture.Manager
	reset bool
}

func (c *completingGestures) Records(userID uint32) []gesture.Record {
	recs := c.Manager.Records(userID)
	if !c.reset {
		for i := range recs {
			recs[i].Complete = true
			recs[i].Progress = 1
		}
	}
	return recs
}

func (c *completingGestures) ResetAll(userID uint32) {
	c.reset = true
	c.Manager.ResetAll(userID)
}

func TestRegistry_PanickingListener(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Add(Funcs{Completed: func(uint32, gesture.Kind, skeleton.Joint, r3.Vec) bool {
		panic("boom")
	}})
	r.Add(logger("b", &calls, false))

	g := &fakeGestures{records: []gesture.Record{{UserID: 1, Kind: gesture.Wheel, Complete: true}}}
	r.Dispatch(g, 1)

	if diff := cmp.Diff([]string{"b completed wheel HipCenter"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if g.resetAll != 0 {
		t.Error("a panic must count as false")
	}
}

func TestRegistry_UserEventsAndRemove(t *testing.T) {
	var calls []string
	r := NewRegistry()
	removeA := r.Add(logger("a", &calls, false))
	r.Add(logger("b", &calls, false))
	r.Add(nil)

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	r.UserDetected(4)
	removeA()
	removeA()
	r.UserLost(4)

	want := []string{"a detected 4", "b detected 4", "b lost 4"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestFuncs_NilFields(t *testing.T) {
	var f Funcs
	f.OnUserDetected(1)
	f.OnUserLost(1)
	f.OnGestureInProgress(1, gesture.Wheel, 0.5, skeleton.HandRight, r3.Vec{})
	if f.OnGestureCompleted(1, gesture.Wheel, skeleton.HandRight, r3.Vec{}) {
		t.Error("nil Completed returned true")
	}
	if f.OnGestureCancelled(1, gesture.Wheel, skeleton.HandRight) {
		t.Error("nil Cancelled returned true")
	}
}

func TestRegistry_DispatchWithManager(t *testing.T) {
	m := gesture.NewManager(gesture.ManagerConfig{})
	m.StartTracking(1, gesture.Wheel)

	var restarted bool
	r := NewRegistry()
	r.Add(Funcs{Cancelled: func(uint32, gesture.Kind, skeleton.Joint) bool {
		restarted = true
		return true
	}})

	// A cancelled record is rearmed by the listener
	rec, _ := m.Record(1, gesture.Wheel)
	if rec.Cancelled {
		t.Fatal("fresh record cancelled")
	}
	r.Dispatch(m, 1)
	if restarted {
		t.Error("fresh record should not dispatch")
	}
}
