package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/ayusman/abhinaya/internal/store"
)

// recordBatchSize is the number of frames buffered before they are written.
const recordBatchSize = 30

// ErrNotRecording is returned by Stop when no recording is active.
var ErrNotRecording = errors.New("not recording")

// Recorder appends processed frames to a recording in the store.
type Recorder struct {
	store   *store.Store
	mu      sync.Mutex
	current *store.Recording
	buf     []skeleton.Frame
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{store: s}
}

// Start begins a new recording, ending any active one. An empty name is
// replaced by one derived from the current time.
func (r *Recorder) Start(name string) (*store.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		if err := r.flush(); err != nil {
			return nil, err
		}
		r.current = nil
	}

	if name == "" {
		name = "Session " + time.Now().Format("2006-01-02 15:04:05")
	}
	rec := &store.Recording{Name: name}
	if err := r.store.Recordings().Create(rec); err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}
	r.current = rec
	return rec, nil
}

// Stop flushes and ends the active recording.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return ErrNotRecording
	}
	err := r.flush()
	r.current = nil
	return err
}

// Active returns the ID of the active recording.
func (r *Recorder) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return "", false
	}
	return r.current.ID, true
}

// Add buffers a copy of frame when a recording is active.
func (r *Recorder) Add(frame *skeleton.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || frame == nil {
		return nil
	}
	r.buf = append(r.buf, skeleton.Frame{
		Timestamp: frame.Timestamp,
		Slots:     append([]skeleton.Slot(nil), frame.Slots...),
	})
	if len(r.buf) >= recordBatchSize {
		return r.flush()
	}
	return nil
}

// Flush writes buffered frames.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

func (r *Recorder) flush() error {
	if r.current == nil || len(r.buf) == 0 {
		return nil
	}
	frames := r.buf
	r.buf = nil
	if err := r.store.Frames().Append(r.current.ID, frames); err != nil {
		return fmt.Errorf("failed to append frames: %w", err)
	}
	return nil
}

// LoadReplay returns a source that plays back a stored recording.
func LoadReplay(s *store.Store, recordingID string, loop bool) (*skeleton.ReplaySource, error) {
	frames, err := s.Frames().GetByRecordingID(recordingID)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		if _, err := s.Recordings().GetByID(recordingID); err != nil {
			return nil, err
		}
	}
	return skeleton.NewReplaySource(frames, loop), nil
}
