package skeleton

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoBridgeCommand is returned when a bridge source has no command configured.
var ErrNoBridgeCommand = errors.New("bridge command not configured")

// BridgeSource reads skeleton frames from an external sensor bridge process.
// The bridge writes one JSON document per line on stdout.
type BridgeSource struct {
	command string
	args    []string
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	reader  *bufio.Reader
	mu      sync.Mutex
	started bool
}

// NewBridgeSource creates a bridge source. The process is started by Open.
func NewBridgeSource(command string, args ...string) *BridgeSource {
	return &BridgeSource{
		command: command,
		args:    args,
	}
}

// Open starts the bridge process.
func (b *BridgeSource) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}
	if b.command == "" {
		return ErrNoBridgeCommand
	}

	b.cmd = exec.Command(b.command, b.args...)

	stdout, err := b.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Bridge diagnostics go straight to our stderr
	b.cmd.Stderr = os.Stderr

	if err := b.cmd.Start(); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	b.stdout = stdout
	b.reader = bufio.NewReader(stdout)
	b.started = true
	return nil
}

// Close stops the bridge process.
func (b *BridgeSource) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}

	if b.cmd.Process != nil {
		b.cmd.Process.Kill()
	}
	b.cmd.Wait()

	b.started = false
	b.cmd = nil
	b.stdout = nil
	b.reader = nil
	return nil
}

// IsOpen reports whether the bridge process is running.
func (b *BridgeSource) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// ReadFrame blocks until the bridge emits the next frame.
func (b *BridgeSource) ReadFrame() (*Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil, ErrSourceClosed
	}

	line, err := b.reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoFrames
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}

	return DecodeBridgeFrame(line)
}

// bridgeFrame is the line format emitted by sensor bridges.
type bridgeFrame struct {
	TimestampMS int64        `json:"timestamp_ms"`
	Bodies      []bridgeBody `json:"bodies"`
}

type bridgeBody struct {
	ID       uint32       `json:"id"`
	Position [3]float64   `json:"position"`
	Joints   [][3]float64 `json:"joints"`
	States   []int        `json:"states"`
}

// DecodeBridgeFrame parses one bridge line into a Frame.
// A zero timestamp is replaced with the current time.
func DecodeBridgeFrame(data []byte) (*Frame, error) {
	var bf bridgeFrame
	if err := json.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}

	frame := &Frame{
		Timestamp: time.UnixMilli(bf.TimestampMS),
		Slots:     make([]Slot, len(bf.Bodies)),
	}
	if bf.TimestampMS == 0 {
		frame.Timestamp = time.Now()
	}

	for i, body := range bf.Bodies {
		slot := Slot{
			ID:       body.ID,
			Position: vec(body.Position),
		}
		for j := 0; j < int(JointCount) && j < len(body.Joints); j++ {
			slot.Joints[j] = vec(body.Joints[j])
		}
		for j := 0; j < int(JointCount) && j < len(body.States); j++ {
			state := TrackingState(body.States[j])
			if state < NotTracked || state > Tracked {
				state = NotTracked
			}
			slot.States[j] = state
		}
		frame.Slots[i] = slot
	}

	return frame, nil
}

func vec(p [3]float64) r3.Vec {
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}
