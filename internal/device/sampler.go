package device

import "time"

// Sampling defaults.
const (
	// DefaultAlpha is the EMA smoothing factor. Higher tracks faster,
	// lower filters more noise.
	DefaultAlpha = 0.3

	// DefaultDeadBand is the minimum filtered change (normalized) that
	// counts as a real movement.
	DefaultDeadBand = 0.01

	// DefaultMovementHold is how long after an emitted movement the channel
	// counts as movement-active, making the fader win over host updates.
	DefaultMovementHold = 500 * time.Millisecond

	// adcMax is the full-scale raw ADC reading (10-bit).
	adcMax = 1023
)

// channelState is the per-channel filter state.
type channelState struct {
	filtered   float64
	primed     bool
	lastSent   float64
	activeThru time.Time
}

// Sampler sweeps the five fader channels through the multiplexer, filters
// the raw readings and reports movements that clear the dead-band.
type Sampler struct {
	mux *Mux
	adc ADCReader

	alpha    float64
	deadBand float64
	hold     time.Duration

	channels [ChannelCount]channelState

	// emit is called for each significant movement with the filtered,
	// normalized value.
	emit func(channel uint8, value float64)
}

// NewSampler creates a sampler with default filter settings.
func NewSampler(mux *Mux, adc ADCReader, emit func(channel uint8, value float64)) *Sampler {
	return &Sampler{
		mux:      mux,
		adc:      adc,
		alpha:    DefaultAlpha,
		deadBand: DefaultDeadBand,
		hold:     DefaultMovementHold,
		emit:     emit,
	}
}

// SetFilter overrides the EMA factor and dead-band.
func (s *Sampler) SetFilter(alpha, deadBand float64) {
	s.alpha = alpha
	s.deadBand = deadBand
}

// SetMovementHold overrides the movement-active hold time.
func (s *Sampler) SetMovementHold(d time.Duration) { s.hold = d }

// Sweep polls all channels once. A transient bus fault on one channel skips
// that channel for this cycle; the rest of the sweep continues.
func (s *Sampler) Sweep(now time.Time) {
	for ch := uint8(0); ch < ChannelCount; ch++ {
		// A failing channel is skipped, not fatal; it gets retried on the
		// next sweep.
		if err := s.mux.SelectAnalog(ch); err != nil {
			continue
		}
		raw, err := s.adc.Read(ch)
		if err != nil {
			continue
		}
		s.ingest(ch, raw, now)
	}
}

// ingest filters one raw reading and emits when the dead-band is cleared.
func (s *Sampler) ingest(ch uint8, raw uint16, now time.Time) {
	if raw > adcMax {
		raw = adcMax
	}
	value := float64(raw) / adcMax

	st := &s.channels[ch]
	if !st.primed {
		// First reading seeds the filter so startup does not report a
		// phantom sweep from zero.
		st.filtered = value
		st.primed = true
		st.lastSent = value
		return
	}

	st.filtered += s.alpha * (value - st.filtered)

	delta := st.filtered - st.lastSent
	if delta < 0 {
		delta = -delta
	}
	if delta > s.deadBand {
		st.lastSent = st.filtered
		st.activeThru = now.Add(s.hold)
		if s.emit != nil {
			s.emit(ch, st.filtered)
		}
	}
}

// MovementActive reports whether the channel emitted a movement recently
// enough that the physical fader should win over host-pushed positions.
func (s *Sampler) MovementActive(ch uint8, now time.Time) bool {
	if ch >= ChannelCount {
		return false
	}
	return now.Before(s.channels[ch].activeThru)
}

// SetPosition overwrites the filter state after the host moved the fader,
// so the motorized position is not re-reported as a user movement.
func (s *Sampler) SetPosition(ch uint8, value float64) {
	if ch >= ChannelCount {
		return
	}
	st := &s.channels[ch]
	st.filtered = value
	st.lastSent = value
	st.primed = true
}

// Value returns the current filtered position of one channel.
func (s *Sampler) Value(ch uint8) float64 {
	if ch >= ChannelCount {
		return 0
	}
	return s.channels[ch].filtered
}
