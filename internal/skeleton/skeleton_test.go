package skeleton

import (
	"errors"
	"math"
	"os/exec"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestJoint_Parent(t *testing.T) {
	tests := []struct {
		joint  Joint
		parent Joint
	}{
		{HipCenter, HipCenter},
		{Head, ShoulderCenter},
		{HandLeft, WristLeft},
		{ElbowRight, ShoulderRight},
		{FootRight, AnkleRight},
		{Joint(-1), HipCenter},
	}

	for _, tt := range tests {
		t.Run(tt.joint.String(), func(t *testing.T) {
			if got := tt.joint.Parent(); got != tt.parent {
				t.Errorf("Parent() = %v, want %v", got, tt.parent)
			}
		})
	}
}

func TestJoint_String(t *testing.T) {
	if HandRight.String() != "HandRight" {
		t.Errorf("String() = %q", HandRight.String())
	}
	if JointCount.String() != "Joint(20)" {
		t.Errorf("String() = %q", JointCount.String())
	}
}

func TestFrame_Find(t *testing.T) {
	frame := &Frame{Slots: []Slot{{}, StandingSlot(7, 2), StandingSlot(9, 3)}}

	if got := frame.Find(9); got != 2 {
		t.Errorf("Find(9) = %d, want 2", got)
	}
	if got := frame.Find(0); got != -1 {
		t.Errorf("Find(0) = %d, want -1", got)
	}
	if got := frame.Find(4); got != -1 {
		t.Errorf("Find(4) = %d, want -1", got)
	}
	if got := frame.TrackedCount(); got != 2 {
		t.Errorf("TrackedCount() = %d, want 2", got)
	}

	var nilFrame *Frame
	if nilFrame.Find(7) != -1 || nilFrame.TrackedCount() != 0 {
		t.Error("nil frame should hold nothing")
	}
}

func TestPose_IsTracked(t *testing.T) {
	p := StandingPose().Untracked(HandLeft)

	if !p.IsTracked(HandRight, Head) {
		t.Error("HandRight and Head should be tracked")
	}
	if p.IsTracked(HandRight, HandLeft) {
		t.Error("HandLeft should not be tracked")
	}
	if p.IsTracked(JointCount) {
		t.Error("invalid joint should not be tracked")
	}
}

func TestSensorTransform_Apply(t *testing.T) {
	t.Run("height only", func(t *testing.T) {
		tr := SensorTransform{Height: 1.2}
		got := tr.Apply(r3.Vec{X: 1, Y: 0.5, Z: 2})
		want := r3.Vec{X: 1, Y: 1.7, Z: 2}
		if r3.Norm(r3.Sub(got, want)) > 1e-9 {
			t.Errorf("Apply() = %v, want %v", got, want)
		}
	})

	t.Run("tilted sensor", func(t *testing.T) {
		tr := SensorTransform{AngleDegrees: 90}
		got := tr.Apply(r3.Vec{Z: 2})
		// A point straight ahead of a sensor pitched up by 90° ends up on the Y axis.
		if math.Abs(got.X) > 1e-9 || math.Abs(math.Abs(got.Y)-2) > 1e-9 || math.Abs(got.Z) > 1e-9 {
			t.Errorf("Apply() = %v, want a point on the Y axis at distance 2", got)
		}
	})
}

func TestReplaySource_Playback(t *testing.T) {
	start := time.Unix(1000, 0)
	frames := []Frame{
		{Timestamp: start, Slots: []Slot{StandingSlot(1, 2)}},
		{Timestamp: start.Add(100 * time.Millisecond), Slots: []Slot{StandingSlot(1, 2)}},
	}

	src := NewReplaySource(frames, false)

	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceClosed) {
		t.Fatalf("ReadFrame() before Open error = %v, want ErrSourceClosed", err)
	}

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	for i := range frames {
		f, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		if !f.Timestamp.Equal(frames[i].Timestamp) {
			t.Errorf("frame %d timestamp = %v, want %v", i, f.Timestamp, frames[i].Timestamp)
		}
	}

	if _, err := src.ReadFrame(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("ReadFrame() after end error = %v, want ErrNoFrames", err)
	}
}

func TestReplaySource_Loop(t *testing.T) {
	start := time.Unix(1000, 0)
	frames := []Frame{
		{Timestamp: start},
		{Timestamp: start.Add(100 * time.Millisecond)},
	}

	src := NewReplaySource(frames, true)
	src.Open()
	defer src.Close()

	var last time.Time
	for i := 0; i < 6; i++ {
		f, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		if i > 0 && !f.Timestamp.After(last) {
			t.Errorf("iteration %d timestamp %v not after %v", i, f.Timestamp, last)
		}
		last = f.Timestamp
	}
}

func TestReplaySource_Isolation(t *testing.T) {
	frames := []Frame{{Slots: []Slot{StandingSlot(1, 2)}}}
	src := NewReplaySource(frames, true)
	src.Open()

	f, _ := src.ReadFrame()
	f.Slots[0].ID = 99

	if frames[0].Slots[0].ID != 1 {
		t.Error("ReadFrame() result must not alias the source frames")
	}
}

func TestReplaySource_SetError(t *testing.T) {
	src := NewReplaySource([]Frame{{}}, true)
	src.Open()

	boom := errors.New("device unplugged")
	src.SetError(boom)
	if _, err := src.ReadFrame(); !errors.Is(err, boom) {
		t.Errorf("ReadFrame() error = %v, want %v", err, boom)
	}

	src.SetError(nil)
	if _, err := src.ReadFrame(); err != nil {
		t.Errorf("ReadFrame() error = %v after clearing", err)
	}
}

func TestDecodeBridgeFrame(t *testing.T) {
	line := []byte(`{"timestamp_ms": 1500, "bodies": [` +
		`{"id": 3, "position": [0.1, 0.2, 2.5], "joints": [[0, 0, 2.5], [0, 0.1, 2.5]], "states": [2, 1, 7]},` +
		`{"id": 0}]}`)

	frame, err := DecodeBridgeFrame(line)
	if err != nil {
		t.Fatalf("DecodeBridgeFrame() error = %v", err)
	}

	if !frame.Timestamp.Equal(time.UnixMilli(1500)) {
		t.Errorf("Timestamp = %v", frame.Timestamp)
	}
	if len(frame.Slots) != 2 {
		t.Fatalf("len(Slots) = %d, want 2", len(frame.Slots))
	}

	body := frame.Slots[0]
	if diff := cmp.Diff(r3.Vec{X: 0.1, Y: 0.2, Z: 2.5}, body.Position); diff != "" {
		t.Errorf("Position mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(r3.Vec{Y: 0.1, Z: 2.5}, body.Joints[Spine]); diff != "" {
		t.Errorf("Spine mismatch (-want +got):\n%s", diff)
	}
	wantStates := []TrackingState{Tracked, Inferred, NotTracked, NotTracked}
	if diff := cmp.Diff(wantStates, body.States[:4]); diff != "" {
		t.Errorf("States mismatch (-want +got):\n%s", diff)
	}
	if frame.Slots[1].IsTracked() {
		t.Error("slot with id 0 should be empty")
	}

	if _, err := DecodeBridgeFrame([]byte("not json")); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestBridgeSource(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	script := `echo '{"timestamp_ms": 10, "bodies": [{"id": 1, "position": [0, 0, 2]}]}'; ` +
		`echo '{"timestamp_ms": 43, "bodies": []}'`
	src := NewBridgeSource("sh", "-c", script)

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if !src.IsOpen() {
		t.Error("IsOpen() = false after Open")
	}

	f, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if f.TrackedCount() != 1 {
		t.Errorf("TrackedCount() = %d, want 1", f.TrackedCount())
	}

	if _, err := src.ReadFrame(); err != nil {
		t.Fatalf("second ReadFrame() error = %v", err)
	}

	if _, err := src.ReadFrame(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("ReadFrame() at EOF error = %v, want ErrNoFrames", err)
	}
}

func TestBridgeSource_NoCommand(t *testing.T) {
	src := NewBridgeSource("")
	if err := src.Open(); !errors.Is(err, ErrNoBridgeCommand) {
		t.Errorf("Open() error = %v, want ErrNoBridgeCommand", err)
	}
}
