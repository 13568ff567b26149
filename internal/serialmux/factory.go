package serialmux

import (
	"errors"
	"io"

	"github.com/banshee-data/fieldwalls/internal/lidar/ld06"
)

// OpenScanner opens the scanner UART at path and returns a ScanMux over it.
// A nil opener uses OpenSerial.
func OpenScanner(path string, opts PortOptions, decoder ld06.DecoderConfig, opener PortOpener) (*ScanMux[SerialPorter], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	if opener == nil {
		opener = OpenSerial
	}
	port, err := opener(path, mode)
	if err != nil {
		return nil, err
	}
	return NewScanMux[SerialPorter](port, decoder), nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
