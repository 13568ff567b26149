package ld06

import (
	"encoding/binary"
	"errors"
	"fmt"
)

/*
LD06 packet layout (47 bytes, little-endian):

	offset  size  field
	0       1     header 0x54
	1       1     ver_len 0x2C (one packet of 12 samples)
	2       2     rotation speed, degrees per second
	4       2     start angle, 0.01°
	6       36    12 × {distance u16 mm, intensity u8}
	42      2     end angle, 0.01°
	44      2     timestamp, ms (wraps at 30000)
	46      1     CRC-8 over bytes 0..45 (poly 0x4D, init 0)

Bearings of the 12 samples are spread evenly from start to end angle; the
end angle is smaller than the start angle when a packet crosses 0°.
*/
const (
	PacketSize       = 47
	SamplesPerPacket = 12
	Header           = 0x54
	VerLen           = 0x2C

	sampleOffset   = 6
	sampleSize     = 3
	endAngleOffset = 42
	timeOffset     = 44
	crcOffset      = 46

	// FullTurn is one revolution in packet angle units (0.01°).
	FullTurn = 36000
)

var (
	// ErrShortPacket means fewer than PacketSize bytes were supplied.
	ErrShortPacket = errors.New("ld06: short packet")
	// ErrBadHeader means the packet does not start with 0x54 0x2C.
	ErrBadHeader = errors.New("ld06: bad packet header")
	// ErrChecksum means the CRC byte does not match the payload.
	ErrChecksum = errors.New("ld06: checksum mismatch")
	// ErrStartNotFound means no packet header appeared within the realignment window.
	ErrStartNotFound = errors.New("ld06: packet start not found")
)

// Sample is one range return in raw sensor units.
type Sample struct {
	Distance  uint16 // mm, 0 = no return
	Intensity uint8
	Angle     uint16 // 0.01°, interpolated, in [0, 36000)
}

// Packet is a decoded LD06 packet.
type Packet struct {
	Speed      uint16 // degrees per second
	StartAngle uint16 // 0.01°
	EndAngle   uint16 // 0.01°
	Timestamp  uint16 // ms
	Samples    [SamplesPerPacket]Sample
}

// RotationHz returns the scan rate implied by the packet's speed field.
func (p Packet) RotationHz() float64 {
	return float64(p.Speed) / 360
}

// DecodePacket validates and decodes one packet. Only the first PacketSize
// bytes of buf are read.
func DecodePacket(buf []byte) (Packet, error) {
	if len(buf) < PacketSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(buf))
	}
	buf = buf[:PacketSize]
	if buf[0] != Header || buf[1] != VerLen {
		return Packet{}, fmt.Errorf("%w: % x", ErrBadHeader, buf[:2])
	}
	if got, want := buf[crcOffset], CRC8(buf[:crcOffset]); got != want {
		return Packet{}, fmt.Errorf("%w: got %#02x, want %#02x", ErrChecksum, got, want)
	}

	p := Packet{
		Speed:      binary.LittleEndian.Uint16(buf[2:]),
		StartAngle: binary.LittleEndian.Uint16(buf[4:]),
		EndAngle:   binary.LittleEndian.Uint16(buf[endAngleOffset:]),
		Timestamp:  binary.LittleEndian.Uint16(buf[timeOffset:]),
	}
	step := angleStep(p.StartAngle, p.EndAngle)
	for i := range p.Samples {
		off := sampleOffset + i*sampleSize
		p.Samples[i] = Sample{
			Distance:  binary.LittleEndian.Uint16(buf[off:]),
			Intensity: buf[off+2],
			Angle:     uint16((uint32(p.StartAngle) + step*uint32(i)) % FullTurn),
		}
	}
	return p, nil
}

// angleStep returns the bearing increment between samples, unwrapping a
// packet that crosses 0°.
func angleStep(start, end uint16) uint32 {
	s, e := uint32(start)%FullTurn, uint32(end)%FullTurn
	if e < s {
		e += FullTurn
	}
	return (e - s) / (SamplesPerPacket - 1)
}

// Encode serialises p, including a valid CRC. Sample angles are not
// encoded; they are implied by StartAngle and EndAngle.
func (p Packet) Encode() []byte {
	buf := make([]byte, PacketSize)
	buf[0], buf[1] = Header, VerLen
	binary.LittleEndian.PutUint16(buf[2:], p.Speed)
	binary.LittleEndian.PutUint16(buf[4:], p.StartAngle)
	for i, s := range p.Samples {
		off := sampleOffset + i*sampleSize
		binary.LittleEndian.PutUint16(buf[off:], s.Distance)
		buf[off+2] = s.Intensity
	}
	binary.LittleEndian.PutUint16(buf[endAngleOffset:], p.EndAngle)
	binary.LittleEndian.PutUint16(buf[timeOffset:], p.Timestamp)
	buf[crcOffset] = CRC8(buf[:crcOffset])
	return buf
}

var crcTable = func() (t [256]byte) {
	const poly = 0x4D
	for i := range t {
		c := byte(i)
		for b := 0; b < 8; b++ {
			if c&0x80 != 0 {
				c = c<<1 ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}()

// CRC8 computes the LD06 checksum (poly 0x4D, init 0, no reflection).
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = crcTable[crc^b]
	}
	return crc
}
