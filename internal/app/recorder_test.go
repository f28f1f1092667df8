package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/testdata"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecorder(t *testing.T) {
	s := newTestStore(t)
	r := NewRecorder(s)

	frames := testdata.NewSequence().Add(35, testdata.Standing(1)).Frames()

	// Frames are dropped while no recording is active.
	if err := r.Add(&frames[0]); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, ok := r.Active(); ok {
		t.Fatal("recorder should start inactive")
	}

	rec, err := r.Start("")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if rec.Name == "" {
		t.Error("Start() should name the recording")
	}
	if id, ok := r.Active(); !ok || id != rec.ID {
		t.Errorf("Active() = %q, %v", id, ok)
	}

	for i := range frames {
		if err := r.Add(&frames[i]); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	stored, err := s.Recordings().GetByID(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Frames != recordBatchSize {
		t.Errorf("frames before stop = %d, want %d", stored.Frames, recordBatchSize)
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("second Stop() error = %v, want ErrNotRecording", err)
	}

	replay, err := LoadReplay(s, rec.ID, false)
	if err != nil {
		t.Fatalf("LoadReplay() error = %v", err)
	}
	if err := replay.Open(); err != nil {
		t.Fatal(err)
	}
	if n := replay.Remaining(); n != len(frames) {
		t.Fatalf("replay holds %d frames, want %d", n, len(frames))
	}
	first, err := replay.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(frames[0].Slots, first.Slots); diff != "" {
		t.Errorf("replayed slots mismatch (-want +got):\n%s", diff)
	}
	if !first.Timestamp.Equal(frames[0].Timestamp) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, frames[0].Timestamp)
	}
}

func TestRecorder_CopiesFrames(t *testing.T) {
	s := newTestStore(t)
	r := NewRecorder(s)
	rec, err := r.Start("copy")
	if err != nil {
		t.Fatal(err)
	}

	frame := skeleton.Frame{Timestamp: testdata.Start, Slots: []skeleton.Slot{testdata.Standing(1)}}
	r.Add(&frame)
	frame.Slots[0].ID = 99
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	got, err := s.Frames().GetByRecordingID(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Slots[0].ID != 1 {
		t.Errorf("recorded frame was modified after Add: %+v", got)
	}
}

func TestLoadReplay_Missing(t *testing.T) {
	if _, err := LoadReplay(newTestStore(t), "missing", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("LoadReplay() error = %v, want ErrNotFound", err)
	}
}

func TestApp_RecordsFrames(t *testing.T) {
	s := newTestStore(t)
	a := New(Config{Settings: testSettings(), Store: s})

	rec, err := a.Recorder().Start("session")
	if err != nil {
		t.Fatal(err)
	}
	feed(a, testdata.NewSequence().Add(4, testdata.Standing(1)).Frames())

	if status := a.Status(); status.Recording != rec.ID {
		t.Errorf("status recording = %q, want %q", status.Recording, rec.ID)
	}
	if err := a.Recorder().Stop(); err != nil {
		t.Fatal(err)
	}

	got, err := s.Frames().GetByRecordingID(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("recorded %d frames, want 4", len(got))
	}
}

func TestApp_UnstampedFrame(t *testing.T) {
	s := newTestStore(t)
	a := New(Config{Settings: testSettings(), Store: s})

	rec, err := a.Recorder().Start("unstamped")
	if err != nil {
		t.Fatal(err)
	}

	frame := skeleton.Frame{Slots: []skeleton.Slot{testdata.Standing(1)}}
	a.ProcessFrame(&frame)

	if !frame.Timestamp.IsZero() {
		t.Errorf("caller's frame was stamped with %v", frame.Timestamp)
	}
	if err := a.Recorder().Stop(); err != nil {
		t.Fatal(err)
	}
	got, err := s.Frames().GetByRecordingID(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Timestamp.IsZero() {
		t.Errorf("recorded frame should carry the processing time: %+v", got)
	}
}
