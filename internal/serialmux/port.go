package serialmux

import (
	"io"

	"go.bug.st/serial"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// PortOpener opens a serial port at path with the given mode.
type PortOpener func(path string, mode *serial.Mode) (SerialPorter, error)

// OpenSerial is the PortOpener backed by go.bug.st/serial.
func OpenSerial(path string, mode *serial.Mode) (SerialPorter, error) {
	return serial.Open(path, mode)
}
