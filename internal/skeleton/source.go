package skeleton

import "errors"

// ErrSourceClosed is returned when reading from a source that is not open.
var ErrSourceClosed = errors.New("source is not open")

// ErrNoFrames is returned when a finite source has no more frames.
var ErrNoFrames = errors.New("no more frames")

// Source defines the interface for skeleton frame providers.
// The sensor driver itself lives outside this module; a Source adapts its output.
type Source interface {
	// Open prepares the source for reading.
	Open() error

	// Close releases any resources held by the source.
	Close() error

	// ReadFrame returns the next frame. Slots with an ID of zero are empty.
	ReadFrame() (*Frame, error)

	// IsOpen reports whether the source is ready for reading.
	IsOpen() bool
}
