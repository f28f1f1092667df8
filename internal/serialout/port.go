package serialout

import (
	"io"

	"go.bug.st/serial"
)

// Port is the part of a serial port the writer needs.
type Port interface {
	io.Writer
	io.Closer
}

// Opener opens a port. Tests replace it to run without hardware.
type Opener func(path string, opts PortOptions) (Port, error)

// OpenSerial opens a real serial port.
func OpenSerial(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
