package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movement struct {
	channel uint8
	value   float64
}

func newTestSampler(adc *SimADC) (*Sampler, *[]movement) {
	moves := &[]movement{}
	bus := NewSimBus()
	mux := newTestMux(bus)
	s := NewSampler(mux, adc, func(ch uint8, v float64) {
		*moves = append(*moves, movement{ch, v})
	})
	return s, moves
}

func TestSamplerFirstSweepIsSilent(t *testing.T) {
	adc := &SimADC{}
	adc.SetValue(0, 512)
	s, moves := newTestSampler(adc)

	s.Sweep(time.Now())
	assert.Empty(t, *moves)
}

func TestSamplerReportsRealMovement(t *testing.T) {
	adc := &SimADC{}
	s, moves := newTestSampler(adc)
	now := time.Now()

	s.Sweep(now) // prime at 0

	adc.SetValue(2, 1023)
	for i := 0; i < 20; i++ {
		now = now.Add(10 * time.Millisecond)
		s.Sweep(now)
	}

	require.NotEmpty(t, *moves)
	for _, m := range *moves {
		assert.Equal(t, uint8(2), m.channel)
	}
	last := (*moves)[len(*moves)-1]
	assert.Greater(t, last.value, 0.9)
}

func TestSamplerDeadBandSuppressesJitter(t *testing.T) {
	adc := &SimADC{}
	adc.SetValue(1, 500)
	s, moves := newTestSampler(adc)
	now := time.Now()

	s.Sweep(now)

	// Raw jitter of a few counts stays inside the 1% dead-band.
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			adc.SetValue(1, 503)
		} else {
			adc.SetValue(1, 498)
		}
		now = now.Add(10 * time.Millisecond)
		s.Sweep(now)
	}

	assert.Empty(t, *moves)
}

func TestSamplerEmittedDeltasExceedDeadBand(t *testing.T) {
	adc := &SimADC{}
	s, moves := newTestSampler(adc)
	now := time.Now()

	s.Sweep(now)

	// A slow ramp across the full range.
	for raw := 0; raw <= 1023; raw += 7 {
		adc.SetValue(3, uint16(raw))
		now = now.Add(10 * time.Millisecond)
		s.Sweep(now)
	}

	require.NotEmpty(t, *moves)
	prev := 0.0
	for _, m := range *moves {
		delta := m.value - prev
		if delta < 0 {
			delta = -delta
		}
		assert.Greater(t, delta, DefaultDeadBand)
		prev = m.value
	}
}

func TestSamplerMovementActiveHold(t *testing.T) {
	adc := &SimADC{}
	s, _ := newTestSampler(adc)
	now := time.Now()

	s.Sweep(now)
	adc.SetValue(0, 800)
	now = now.Add(10 * time.Millisecond)
	s.Sweep(now)

	assert.True(t, s.MovementActive(0, now))
	assert.True(t, s.MovementActive(0, now.Add(400*time.Millisecond)))
	assert.False(t, s.MovementActive(0, now.Add(600*time.Millisecond)))
	assert.False(t, s.MovementActive(1, now))
}

func TestSamplerSetPositionSuppressesEcho(t *testing.T) {
	adc := &SimADC{}
	adc.SetValue(4, 512)
	s, moves := newTestSampler(adc)
	now := time.Now()

	s.Sweep(now)

	// The host moves the fader to 0.75; the ADC then reads ~0.75 back.
	s.SetPosition(4, 0.75)
	adc.SetValue(4, 767)
	for i := 0; i < 20; i++ {
		now = now.Add(10 * time.Millisecond)
		s.Sweep(now)
	}

	assert.Empty(t, *moves)
}

func TestSamplerSkipsFailedChannel(t *testing.T) {
	adc := &SimADC{}
	s, moves := newTestSampler(adc)
	now := time.Now()

	s.Sweep(now)

	adc.SetFail(1, true)
	adc.SetValue(0, 1023)
	adc.SetValue(1, 1023)

	for i := 0; i < 20; i++ {
		now = now.Add(10 * time.Millisecond)
		s.Sweep(now)
	}

	for _, m := range *moves {
		assert.Equal(t, uint8(0), m.channel)
	}

	// The channel recovers on the next sweep after the fault clears.
	adc.SetFail(1, false)
	for i := 0; i < 20; i++ {
		now = now.Add(10 * time.Millisecond)
		s.Sweep(now)
	}

	seen := false
	for _, m := range *moves {
		if m.channel == 1 {
			seen = true
		}
	}
	assert.True(t, seen)
}
