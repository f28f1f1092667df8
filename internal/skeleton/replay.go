package skeleton

import (
	"sync"
	"time"
)

// ReplaySource plays back a fixed sequence of frames. It backs tests and
// the playback of recorded sessions.
type ReplaySource struct {
	frames  []Frame
	index   int
	loops   int
	loop    bool
	err     error
	mu      sync.Mutex
	running bool
}

// NewReplaySource creates a ReplaySource over frames. When loop is true,
// playback restarts at the end and timestamps keep increasing.
func NewReplaySource(frames []Frame, loop bool) *ReplaySource {
	return &ReplaySource{
		frames: frames,
		loop:   loop,
	}
}

// Open starts playback from the first frame.
func (s *ReplaySource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	s.loops = 0
	return nil
}

// Close stops playback.
func (s *ReplaySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// ReadFrame returns a copy of the next frame.
func (s *ReplaySource) ReadFrame() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceClosed
	}
	if s.err != nil {
		return nil, s.err
	}
	if len(s.frames) == 0 {
		return nil, ErrNoFrames
	}

	if s.index >= len(s.frames) {
		if !s.loop {
			return nil, ErrNoFrames
		}
		s.index = 0
		s.loops++
	}

	src := s.frames[s.index]
	s.index++

	frame := Frame{
		Timestamp: src.Timestamp.Add(time.Duration(s.loops) * s.span()),
		Slots:     make([]Slot, len(src.Slots)),
	}
	copy(frame.Slots, src.Slots)

	return &frame, nil
}

// span is the playback length of one pass, including one frame interval so
// that looped timestamps never repeat.
func (s *ReplaySource) span() time.Duration {
	n := len(s.frames)
	if n < 2 {
		return time.Second / 30
	}
	total := s.frames[n-1].Timestamp.Sub(s.frames[0].Timestamp)
	return total + total/time.Duration(n-1)
}

// IsOpen reports whether playback is running.
func (s *ReplaySource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetFrames replaces the frame sequence and rewinds.
func (s *ReplaySource) SetFrames(frames []Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
	s.index = 0
	s.loops = 0
}

// SetError makes every subsequent ReadFrame fail with err. Pass nil to clear.
func (s *ReplaySource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Remaining returns the number of frames left in the current pass.
func (s *ReplaySource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) - s.index
}
