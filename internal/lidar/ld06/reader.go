package ld06

import (
	"bufio"
	"fmt"
	"io"

	"github.com/banshee-data/fieldwalls/internal/monitoring"
)

// maxSkip bounds how far Next scans for a header before giving up.
const maxSkip = 2 * PacketSize

// FrameReader reads packets from a byte stream, realigning on the packet
// header when the stream starts mid-packet or drops bytes.
type FrameReader struct {
	r       *bufio.Reader
	buf     [PacketSize]byte
	resyncs int
	skipped int
}

// NewFrameReader wraps r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 4*PacketSize)}
}

// Resyncs returns how many times the reader had to skip bytes to find a header.
func (fr *FrameReader) Resyncs() int { return fr.resyncs }

// Skipped returns the total number of bytes discarded while realigning.
func (fr *FrameReader) Skipped() int { return fr.skipped }

// Next returns the next packet. A corrupt packet yields ErrChecksum and the
// reader stays usable. ErrStartNotFound is returned after maxSkip bytes
// without a header; the following call keeps scanning. io.EOF is returned
// at a clean packet boundary, io.ErrUnexpectedEOF inside a packet.
func (fr *FrameReader) Next() (Packet, error) {
	skipped, err := fr.seekHeader()
	if skipped > 0 {
		fr.resyncs++
		fr.skipped += skipped
		monitoring.Debugf("ld06: stream misaligned, skipped %d bytes", skipped)
	}
	if err != nil {
		if err == io.EOF && skipped > 0 {
			err = io.ErrUnexpectedEOF
		}
		return Packet{}, err
	}

	fr.buf[0], fr.buf[1] = Header, VerLen
	if _, err := io.ReadFull(fr.r, fr.buf[2:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Packet{}, err
	}
	return DecodePacket(fr.buf[:])
}

// seekHeader consumes bytes up to and including the next 0x54 0x2C pair.
func (fr *FrameReader) seekHeader() (int, error) {
	skipped := 0
	for skipped < maxSkip {
		b, err := fr.r.ReadByte()
		if err != nil {
			return skipped, err
		}
		if b != Header {
			skipped++
			continue
		}
		next, err := fr.r.Peek(1)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return skipped, err
		}
		if next[0] != VerLen {
			skipped++
			continue
		}
		_, _ = fr.r.ReadByte()
		return skipped, nil
	}
	return skipped, fmt.Errorf("%w after %d bytes", ErrStartNotFound, skipped)
}
