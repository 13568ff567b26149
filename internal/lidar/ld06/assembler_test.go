package ld06

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// revolution returns 100 packets covering 0°..360°, 3.6° each.
func revolution() []Packet {
	out := make([]Packet, 0, 100)
	for k := 0; k < 100; k++ {
		start := uint16(k * 360)
		p := testPacket(start)
		for i := range p.Samples {
			p.Samples[i].Angle = start + uint16(30*i)
		}
		out = append(out, p)
	}
	return out
}

func TestScanAssembler_EmitsFullRevolutions(t *testing.T) {
	a := NewScanAssembler(DefaultDecoderConfig())
	rev := revolution()

	var scans []Scan
	feed := func(ps []Packet) {
		for _, p := range ps {
			if s, ok := a.Add(p); ok {
				scans = append(scans, s)
			}
		}
	}

	feed(rev[50:]) // partial revolution at start-up
	assert.Empty(t, scans)

	feed(rev)
	assert.Empty(t, scans, "a revolution is only complete once the next one starts")

	feed(rev[:1])
	require.Len(t, scans, 1)
	s := scans[0]
	assert.Len(t, s.Points, 100*SamplesPerPacket)
	assert.Equal(t, 100, s.Packets)
	assert.Equal(t, uint16(3600), s.Speed)
	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, SamplesPerPacket, a.Pending())

	feed(rev[1:])
	feed(rev[:1])
	require.Len(t, scans, 2)
	assert.NotEqual(t, scans[0].ID, scans[1].ID)
}

func TestScanAssembler_WrapInsidePacket(t *testing.T) {
	a := NewScanAssembler(DecoderConfig{})
	rev := revolution()
	for _, p := range rev[50:] {
		a.Add(p)
	}
	for _, p := range rev[:99] {
		_, ok := a.Add(p)
		require.False(t, ok)
	}

	// 35800 .. 36130 crosses 0° after the 7th sample.
	p := testPacket(35800)
	for i := range p.Samples {
		p.Samples[i].Angle = uint16((35800 + 30*i) % FullTurn)
	}
	s, ok := a.Add(p)
	require.True(t, ok)
	assert.Len(t, s.Points, 99*SamplesPerPacket+7)
	assert.Equal(t, 100, s.Packets)
	assert.Equal(t, 5, a.Pending())
}

func TestScanAssembler_SkipsEmptyRevolution(t *testing.T) {
	a := NewScanAssembler(DecoderConfig{})
	rev := revolution()
	for i := range rev {
		for j := range rev[i].Samples {
			rev[i].Samples[j].Distance = 0
		}
	}
	for _, p := range rev {
		a.Add(p)
	}
	for _, p := range append(rev, rev[0]) {
		_, ok := a.Add(p)
		assert.False(t, ok)
	}
	assert.Zero(t, a.Pending())
}
