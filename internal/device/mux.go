package device

import (
	"fmt"
	"time"
)

// Default multiplexer bus addresses. The analog bank and the display bank sit
// behind separate switch ICs on the same bus.
const (
	DefaultAnalogMuxAddr  = 0x71
	DefaultDisplayMuxAddr = 0x70
)

// DefaultSettleDelay is how long the mux output is given to settle after a
// channel switch before the first transfer.
const DefaultSettleDelay = 200 * time.Microsecond

// muxBank identifies which switch IC is active.
type muxBank uint8

const (
	bankNone muxBank = iota
	bankAnalog
	bankDisplay
)

// Mux time-slices the shared bus across the five analog channels and the
// five display channels. Exactly one downstream channel is enabled at a
// time; a switch always fully deselects the previous channel before the new
// one is enabled, so a mid-cycle fault can never leave two channels driving
// the bus.
type Mux struct {
	bus         Bus
	analogAddr  uint8
	displayAddr uint8
	settle      time.Duration

	bank    muxBank
	channel uint8

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewMux creates a multiplexer on bus with the default addresses.
func NewMux(bus Bus) *Mux {
	return &Mux{
		bus:         bus,
		analogAddr:  DefaultAnalogMuxAddr,
		displayAddr: DefaultDisplayMuxAddr,
		settle:      DefaultSettleDelay,
		sleep:       time.Sleep,
	}
}

// SetSettleDelay overrides the post-switch settle delay.
func (m *Mux) SetSettleDelay(d time.Duration) { m.settle = d }

// SelectAnalog routes the bus to one ADC channel.
func (m *Mux) SelectAnalog(channel uint8) error {
	return m.selectChannel(bankAnalog, channel)
}

// SelectDisplay routes the bus to one display channel.
func (m *Mux) SelectDisplay(channel uint8) error {
	return m.selectChannel(bankDisplay, channel)
}

// Deselect disables all downstream channels on both banks.
func (m *Mux) Deselect() error {
	if err := m.bus.Write(m.analogAddr, []byte{0x00}); err != nil {
		return fmt.Errorf("mux: deselect analog bank: %w", err)
	}
	if err := m.bus.Write(m.displayAddr, []byte{0x00}); err != nil {
		return fmt.Errorf("mux: deselect display bank: %w", err)
	}
	m.bank = bankNone
	return nil
}

func (m *Mux) selectChannel(bank muxBank, channel uint8) error {
	if channel >= ChannelCount {
		return fmt.Errorf("mux: channel %d out of range", channel)
	}
	if m.bank == bank && m.channel == channel {
		return nil
	}

	// Deselect first. If this fails the mux state is unknown, so forget the
	// cached selection and let the next call start from scratch.
	if err := m.Deselect(); err != nil {
		m.bank = bankNone
		return err
	}

	addr := m.analogAddr
	if bank == bankDisplay {
		addr = m.displayAddr
	}
	if err := m.bus.Write(addr, []byte{1 << channel}); err != nil {
		m.bank = bankNone
		return fmt.Errorf("mux: select channel %d: %w", channel, err)
	}

	m.bank = bank
	m.channel = channel
	m.sleep(m.settle)
	return nil
}
