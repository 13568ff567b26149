package ld06

import (
	"encoding/hex"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fieldwalls/internal/config"
	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
)

// datasheetPacket is the sample frame from the LD06 development manual.
const datasheetPacket = "542C6808AB7EE000E4DC00E2D900E5D500E3D300E4D000E9CD00E4CA00E2C700E9C500E5C200E5C000E5BE823A1A50"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

func TestCRC8(t *testing.T) {
	assert.Equal(t, byte(0x00), crcTable[0])
	assert.Equal(t, byte(0x4D), crcTable[1])
	assert.Equal(t, byte(0x9A), crcTable[2])

	buf := mustHex(t, datasheetPacket)
	assert.Equal(t, byte(0x50), CRC8(buf[:crcOffset]))
}

func TestDecodePacket_Datasheet(t *testing.T) {
	p, err := DecodePacket(mustHex(t, datasheetPacket))
	require.NoError(t, err)

	assert.Equal(t, uint16(2152), p.Speed)
	assert.Equal(t, uint16(32427), p.StartAngle)
	assert.Equal(t, uint16(33470), p.EndAngle)
	assert.Equal(t, uint16(6714), p.Timestamp)
	assert.Equal(t, Sample{Distance: 224, Intensity: 228, Angle: 32427}, p.Samples[0])
	assert.Equal(t, Sample{Distance: 192, Intensity: 229, Angle: 32427 + 11*94}, p.Samples[11])
	assert.InDelta(t, 5.98, p.RotationHz(), 0.01)
}

func TestDecodePacket_AngleWrap(t *testing.T) {
	in := Packet{Speed: 3600, StartAngle: 35900, EndAngle: 500}
	p, err := DecodePacket(in.Encode())
	require.NoError(t, err)

	// (500 + 36000 - 35900) / 11 = 54
	assert.Equal(t, uint16(35900), p.Samples[0].Angle)
	assert.Equal(t, uint16(35954), p.Samples[1].Angle)
	assert.Equal(t, uint16(8), p.Samples[2].Angle)
	assert.Equal(t, uint16(494), p.Samples[11].Angle)
}

func TestDecodePacket_Errors(t *testing.T) {
	good := mustHex(t, datasheetPacket)

	badHeader := append([]byte(nil), good...)
	badHeader[1] = 0x2D

	badCRC := append([]byte(nil), good...)
	badCRC[10] ^= 0xFF

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, ErrShortPacket},
		{"short", good[:PacketSize-1], ErrShortPacket},
		{"bad header", badHeader, ErrBadHeader},
		{"bad checksum", badCRC, ErrChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePacket(tt.buf)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodePacket_IgnoresTrailingBytes(t *testing.T) {
	buf := append(mustHex(t, datasheetPacket), 0x54, 0x2C)
	_, err := DecodePacket(buf)
	assert.NoError(t, err)
}

func TestPacketEncode_Datasheet(t *testing.T) {
	buf := mustHex(t, datasheetPacket)
	p, err := DecodePacket(buf)
	require.NoError(t, err)
	assert.Equal(t, buf, p.Encode())
}

func TestDecoderConfigPoint(t *testing.T) {
	p := Packet{StartAngle: 9000, EndAngle: 9000 + 11*100}
	for i := range p.Samples {
		p.Samples[i] = Sample{Distance: 1500, Intensity: 200, Angle: uint16(9000 + 100*i)}
	}
	p.Samples[3].Distance = 0
	p.Samples[4].Intensity = 5

	tests := []struct {
		name      string
		cfg       DecoderConfig
		wantCount int
		wantAngle float64
	}{
		{"counter-clockwise", DecoderConfig{}, 11, math.Pi / 2},
		{"clockwise", DecoderConfig{Clockwise: true}, 11, 3 * math.Pi / 2},
		{"intensity filter", DecoderConfig{MinIntensity: 10}, 10, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pts []geom.PolarPoint
			for _, s := range p.Samples {
				if pt, ok := tt.cfg.Point(s); ok {
					pts = append(pts, pt)
				}
			}
			require.Len(t, pts, tt.wantCount)
			assert.InDelta(t, 1.5, pts[0].Distance, 1e-12)
			assert.InDelta(t, tt.wantAngle, pts[0].Angle, 1e-9)
			for _, pt := range pts {
				assert.True(t, pt.Valid())
				assert.GreaterOrEqual(t, pt.Angle, 0.0)
				assert.Less(t, pt.Angle, 2*math.Pi)
			}
		})
	}
}

func TestDefaultDecoderConfig(t *testing.T) {
	assert.True(t, DefaultDecoderConfig().Clockwise)
	assert.Zero(t, DefaultDecoderConfig().MinIntensity)
}

func TestDecoderConfigFromTuning_MinIntensity(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	n := 40
	cfg.MinIntensity = &n
	dec := DecoderConfigFromTuning(cfg)
	assert.Equal(t, uint8(40), dec.MinIntensity)

	_, ok := dec.Point(Sample{Distance: 1000, Intensity: 39})
	assert.False(t, ok)
	_, ok = dec.Point(Sample{Distance: 1000, Intensity: 40})
	assert.True(t, ok)
}
