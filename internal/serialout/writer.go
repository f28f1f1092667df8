package serialout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/abhinaya/internal/vehicle"
)

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("serial writer closed")

// DefaultInterval is the time between state writes.
const DefaultInterval = 100 * time.Millisecond

// StateSource provides the controls to send. vehicle.Controls implements it.
type StateSource interface {
	State() vehicle.State
}

// Format renders a state as the firmware's three-line instruction.
func Format(s vehicle.State) string {
	return "instruct\n" + strconv.Itoa(s.Steering()) + "\n" + strconv.Itoa(s.Gear) + "\n"
}

// Writer periodically writes the vehicle state to a port.
type Writer struct {
	mu       sync.Mutex
	port     Port
	source   StateSource
	interval time.Duration
	writes   int
	closed   bool
}

// NewWriter creates a writer. A non-positive interval uses DefaultInterval.
func NewWriter(port Port, source StateSource, interval time.Duration) *Writer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Writer{
		port:     port,
		source:   source,
		interval: interval,
	}
}

// Open opens path with opener and wraps it in a Writer.
func Open(opener Opener, path string, opts PortOptions, source StateSource, interval time.Duration) (*Writer, error) {
	if opener == nil {
		opener = OpenSerial
	}
	port, err := opener(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return NewWriter(port, source, interval), nil
}

// WriteState writes one instruction for the current state.
func (w *Writer) WriteState() error {
	msg := Format(w.source.State())

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := w.port.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write serial: %w", err)
	}
	w.writes++
	return nil
}

// Writes returns the number of successful writes.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

// Run writes the state every interval until ctx ends or the writer is
// closed. Write errors are logged and retried on the next tick.
func (w *Writer) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastErr string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := w.WriteState()
			switch {
			case errors.Is(err, ErrClosed):
				return err
			case err != nil:
				if err.Error() != lastErr {
					log.Printf("Serial link: %v", err)
				}
				lastErr = err.Error()
			default:
				lastErr = ""
			}
		}
	}
}

// Close stops the writer and closes the port.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.port.Close()
}
