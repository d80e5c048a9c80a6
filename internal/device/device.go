package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Dentalcow/cybermix/pkg/log"
	"github.com/Dentalcow/cybermix/pkg/transport"
	"github.com/Dentalcow/cybermix/pkg/wire"
)

// ChannelCount is the number of fader channels.
const ChannelCount = wire.ChannelCount

// Loop defaults.
const (
	// DefaultSweepInterval is the polling cycle period. One cycle covers
	// the ADC sweep, the button tick, serial RX and the display refresh.
	DefaultSweepInterval = 10 * time.Millisecond

	// DefaultHeartbeatInterval is how often the device sends a heartbeat.
	DefaultHeartbeatInterval = time.Second

	// DefaultPages is the number of pages the device cycles through.
	DefaultPages = 3
)

// Config carries the tunables of the device loop.
type Config struct {
	Pages             uint8
	SweepInterval     time.Duration
	HeartbeatInterval time.Duration
	Debounce          time.Duration
	MaxHold           time.Duration
	Alpha             float64
	DeadBand          float64
	MovementHold      time.Duration

	Logger log.Logger
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Pages == 0 {
		c.Pages = DefaultPages
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MaxHold == 0 {
		c.MaxHold = DefaultMaxHold
	}
	if c.Alpha == 0 {
		c.Alpha = DefaultAlpha
	}
	if c.DeadBand == 0 {
		c.DeadBand = DefaultDeadBand
	}
	if c.MovementHold == 0 {
		c.MovementHold = DefaultMovementHold
	}
	if c.Logger == nil {
		c.Logger = &log.NoopLogger{}
	}
	return c
}

// Hardware bundles the physical peripherals the loop drives.
type Hardware struct {
	Bus     Bus
	ADC     ADCReader
	Button  ButtonInput
	Display DisplayDriver
	Strip   LEDStrip
}

// rxFrame is one decoded frame delivered to the loop.
type rxFrame struct {
	msg any
	err error
}

// Device is the embedded-side controller: it owns the multiplexed bus, the
// button state machine and the serial link, and runs them from a single
// cooperative loop.
type Device struct {
	cfg    Config
	hw     Hardware
	framer *transport.Framer

	mux      *Mux
	sampler  *Sampler
	button   *PageButton
	renderer *Renderer
	leds     *LEDs

	rx      chan rxFrame
	pending []any // outbound messages staged by sweep/button callbacks
}

// New creates a device over the given link.
func New(cfg Config, hw Hardware, link io.ReadWriter) *Device {
	cfg = cfg.withDefaults()

	d := &Device{
		cfg:    cfg,
		hw:     hw,
		framer: transport.NewFramer(link),
		rx:     make(chan rxFrame, 16),
	}
	d.framer.SetLogger(cfg.Logger, "device")

	d.mux = NewMux(hw.Bus)
	d.sampler = NewSampler(d.mux, hw.ADC, d.onFaderMoved)
	d.sampler.SetFilter(cfg.Alpha, cfg.DeadBand)
	d.sampler.SetMovementHold(cfg.MovementHold)
	d.button = NewPageButton(cfg.Pages, d.onButtonPressed, d.onPageChanged)
	d.button.SetTiming(cfg.Debounce, cfg.MaxHold)
	d.renderer = NewRenderer(d.mux, hw.Display)
	d.leds = NewLEDs(hw.Strip)

	return d
}

// Run drives the polling loop until the context is canceled or the link
// fails. The link reader runs in its own goroutine, but every decoded frame
// is handed to the loop, so only the loop ever touches the bus.
func (d *Device) Run(ctx context.Context) error {
	go d.readLoop(ctx)

	if err := d.framer.WriteMessage(&wire.Hello{
		Protocol: wire.ProtocolVersion,
		Channels: ChannelCount,
		Pages:    d.cfg.Pages,
	}); err != nil {
		return fmt.Errorf("failed to send hello: %w", err)
	}

	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()

	lastHeartbeat := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case f := <-d.rx:
			if f.err != nil {
				return f.err
			}
			d.handle(f.msg)
			if err := d.flush(); err != nil {
				return err
			}

		case <-ticker.C:
			now := time.Now()
			d.sampler.Sweep(now)
			d.button.Tick(d.hw.Button.Pressed(), now)
			d.renderer.Refresh()
			d.leds.Refresh()

			if now.Sub(lastHeartbeat) >= d.cfg.HeartbeatInterval {
				lastHeartbeat = now
				d.stage(&wire.Heartbeat{})
			}
			if err := d.flush(); err != nil {
				return err
			}
		}
	}
}

// readLoop decodes frames off the link and delivers them to the loop.
// Corrupt frames are dropped here; the reader has already resynchronized.
func (d *Device) readLoop(ctx context.Context) {
	for {
		t, payload, err := d.framer.ReadFrame()
		if err != nil {
			if errors.Is(err, transport.ErrFrameCorrupt) {
				continue
			}
			select {
			case d.rx <- rxFrame{err: err}:
			case <-ctx.Done():
			}
			return
		}
		msg, err := wire.Decode(t, payload)
		if err != nil {
			// Unknown or malformed payload: skip the frame.
			continue
		}
		select {
		case d.rx <- rxFrame{msg: msg}:
		case <-ctx.Done():
			return
		}
	}
}

// handle applies one host message to the local peripherals.
func (d *Device) handle(msg any) {
	switch m := msg.(type) {
	case *wire.Heartbeat:
		// Presence only.

	case *wire.SetVolume:
		// While the user is physically moving this fader, the fader wins.
		if d.sampler.MovementActive(m.Channel, time.Now()) {
			return
		}
		d.sampler.SetPosition(m.Channel, m.Value)

	case *wire.RenderDisplay:
		d.renderer.Queue(m.Channel, m.Line1, m.Line2)

	case *wire.SetLED:
		d.leds.SetChannel(m.Channel, m.R, m.G, m.B)

	case *wire.SetLEDBar:
		d.leds.SetBar(m.Level)

	case *wire.PageChanged:
		d.button.SetPage(m.Page)
	}
}

// onFaderMoved stages a movement report. Called from the sweep.
func (d *Device) onFaderMoved(channel uint8, value float64) {
	d.stage(&wire.FaderMoved{Channel: channel, Value: value})
}

// onButtonPressed stages the raw press notification.
func (d *Device) onButtonPressed() {
	d.stage(&wire.ButtonPressed{})
}

// onPageChanged stages the page announcement after a short press.
func (d *Device) onPageChanged(page uint8) {
	d.stage(&wire.PageChanged{Page: page})
}

// stage queues an outbound message for the end of the current cycle.
func (d *Device) stage(msg any) {
	d.pending = append(d.pending, msg)
}

// flush writes all staged messages to the link.
func (d *Device) flush() error {
	for _, msg := range d.pending {
		if err := d.framer.WriteMessage(msg); err != nil {
			d.pending = nil
			return err
		}
	}
	d.pending = d.pending[:0]
	return nil
}
