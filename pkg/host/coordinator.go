package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Dentalcow/cybermix/pkg/audio"
	"github.com/Dentalcow/cybermix/pkg/binding"
	"github.com/Dentalcow/cybermix/pkg/log"
	"github.com/Dentalcow/cybermix/pkg/transport"
	"github.com/Dentalcow/cybermix/pkg/wire"
)

// eventQueueSize bounds the ordered event queue. Producers block when the
// coordinator falls behind, which keeps ordering instead of dropping.
const eventQueueSize = 64

// Config carries the coordinator tunables.
type Config struct {
	// Pages is the number of binding pages.
	Pages uint8

	// HeartbeatInterval is the link heartbeat period.
	HeartbeatInterval time.Duration

	// Suppression is the echo suppression window.
	Suppression time.Duration

	// SaveInterval is how often dirty fader positions are flushed to the
	// state file. Structural changes (bindings, page) still save at once; a
	// fader drag produces many movements per second and only marks the state
	// dirty.
	SaveInterval time.Duration

	// Logger receives protocol events. Nil disables logging.
	Logger log.Logger

	// OnLinkLost is called (from the coordinator goroutine) when the device
	// link times out or its read side fails. Typically wired to the
	// connection manager's NotifyConnectionLost.
	OnLinkLost func()
}

// event is one entry in the ordered queue.
type event struct {
	// Exactly one of the following is set.
	frame   any            // decoded device message
	audio   *audio.Event   // platform mixer event
	command func()         // console command, runs on the coordinator
	link    *deviceLink    // link came up
	lost    bool           // link went down
}

// deviceLink is one attached device connection.
type deviceLink struct {
	id      string
	framer  *transport.Framer
	monitor *transport.LinkMonitor
	closer  io.Closer
	cancel  context.CancelFunc
}

// Coordinator binds the device to the host audio sessions.
type Coordinator struct {
	cfg      Config
	router   *audio.Router
	bindings *binding.Manager
	store    *binding.Store
	api      audio.API
	logger   log.Logger

	events chan event

	// Everything below is owned by the coordinator goroutine.
	page  uint8
	fader [wire.ChannelCount]float64
	link  *deviceLink
	dirty bool
}

// New creates a coordinator and restores persisted state.
func New(cfg Config, api audio.API, store *binding.Store) (*Coordinator, error) {
	if cfg.Pages == 0 {
		cfg.Pages = 3
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = transport.DefaultHeartbeatInterval
	}
	if cfg.SaveInterval == 0 {
		cfg.SaveInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NoopLogger{}
	}

	router := audio.NewRouter(api)
	if cfg.Suppression > 0 {
		router.SetSuppressionWindow(cfg.Suppression)
	}

	c := &Coordinator{
		cfg:      cfg,
		router:   router,
		bindings: binding.NewManager(int(cfg.Pages), wire.ChannelCount, router),
		store:    store,
		api:      api,
		logger:   cfg.Logger,
		events:   make(chan event, eventQueueSize),
	}

	if err := c.restore(); err != nil {
		return nil, err
	}
	if err := router.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// restore loads the persisted page, fader values and bindings.
func (c *Coordinator) restore() error {
	if c.store == nil {
		return nil
	}
	page, faderValues, records, err := c.store.Load(func(raw []byte, err error) {
		c.logStateChange(log.StateEntityBinding, "discarded persisted state: "+err.Error())
	})
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if page < c.cfg.Pages {
		c.page = page
	}
	for i, v := range faderValues {
		if i < len(c.fader) && v >= 0 && v <= 1 {
			c.fader[i] = v
		}
	}
	c.bindings.Import(records, func(rec binding.Record, err error) {
		c.logStateChange(log.StateEntityBinding,
			fmt.Sprintf("dropped record %d/%d -> %s: %v", rec.Page, rec.Channel, rec.Target, err))
	})
	return nil
}

// Run consumes the ordered queue until the context is canceled.
// Platform audio events are pumped into the queue by a helper goroutine.
func (c *Coordinator) Run(ctx context.Context) error {
	go func() {
		for ev := range c.api.Events() {
			copied := ev
			select {
			case c.events <- event{audio: &copied}:
			case <-ctx.Done():
				return
			}
		}
	}()

	saveTicker := time.NewTicker(c.cfg.SaveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flushSave()
			c.detachLink()
			return ctx.Err()
		case <-saveTicker.C:
			c.flushSave()
		case ev := <-c.events:
			c.dispatch(ev)
		}
	}
}

// dispatch handles one queue entry on the coordinator goroutine.
func (c *Coordinator) dispatch(ev event) {
	switch {
	case ev.frame != nil:
		c.handleFrame(ev.frame)
	case ev.audio != nil:
		c.handleAudio(*ev.audio)
	case ev.command != nil:
		ev.command()
	case ev.link != nil:
		c.handleLinkUp(ev.link)
	case ev.lost:
		c.handleLinkLost()
	}
}

// Attach takes ownership of an established device connection. The read side
// and the heartbeat monitor run in their own goroutines; every decoded frame
// is delivered through the ordered queue.
//
// The link carries its own lifetime, ended only by link loss, replacement or
// coordinator shutdown. Callers dialing under a short-lived attempt context
// must not let that context govern the link.
func (c *Coordinator) Attach(conn io.ReadWriteCloser) {
	linkCtx, cancel := context.WithCancel(context.Background())

	l := &deviceLink{
		id:     uuid.New().String(),
		framer: transport.NewFramer(conn),
		closer: conn,
		cancel: cancel,
	}
	l.framer.SetLogger(c.logger, l.id)

	l.monitor = transport.NewLinkMonitor(
		transport.LinkConfig{Interval: c.cfg.HeartbeatInterval, MissLimit: transport.DefaultMissLimit},
		func() error { return l.framer.WriteMessage(&wire.Heartbeat{}) },
		func() { c.events <- event{lost: true} },
	)
	l.monitor.Start(linkCtx)

	go c.readLoop(linkCtx, l)

	c.events <- event{link: l}
}

// readLoop decodes frames off one link into the queue.
func (c *Coordinator) readLoop(ctx context.Context, l *deviceLink) {
	for {
		t, payload, err := l.framer.ReadFrame()
		if err != nil {
			if errors.Is(err, transport.ErrFrameCorrupt) {
				// Already resynchronized; drop the frame.
				continue
			}
			select {
			case c.events <- event{lost: true}:
			case <-ctx.Done():
			}
			return
		}
		l.monitor.Received()

		msg, err := wire.Decode(t, payload)
		if err != nil {
			c.logError(l.id, fmt.Sprintf("bad %s payload: %v", t, err))
			continue
		}
		select {
		case c.events <- event{frame: msg}:
		case <-ctx.Done():
			return
		}
	}
}

// handleLinkUp installs the new link and pushes the full visual state.
func (c *Coordinator) handleLinkUp(l *deviceLink) {
	c.detachLink()
	c.link = l
	c.logStateChange(log.StateEntityLink, "device attached "+l.id)
	c.pushFullState()
}

// handleLinkLost tears the link down. Outbound updates from here on land in
// the state tables only; the next link-up retransmits everything.
func (c *Coordinator) handleLinkLost() {
	if c.link == nil {
		return
	}
	c.logStateChange(log.StateEntityLink, "device link lost "+c.link.id)
	c.detachLink()
	if c.cfg.OnLinkLost != nil {
		c.cfg.OnLinkLost()
	}
}

// detachLink stops and closes the current link, if any.
func (c *Coordinator) detachLink() {
	if c.link == nil {
		return
	}
	c.link.monitor.Stop()
	c.link.cancel()
	_ = c.link.closer.Close()
	c.link = nil
}

// handleFrame applies one device message.
func (c *Coordinator) handleFrame(msg any) {
	switch m := msg.(type) {
	case *wire.Heartbeat:
		// Liveness only; the monitor already saw it.

	case *wire.Hello:
		// The device rebooted or reconnected and holds no state.
		c.logStateChange(log.StateEntityConnection,
			fmt.Sprintf("device hello: protocol %d, %d channels, %d pages", m.Protocol, m.Channels, m.Pages))
		c.pushFullState()

	case *wire.FaderMoved:
		if err := m.Validate(); err != nil {
			c.logError("", "fader moved: "+err.Error())
			return
		}
		c.handleFaderMoved(m.Channel, m.Value)

	case *wire.ButtonPressed:
		// Raw press notification; the page change follows separately.

	case *wire.PageChanged:
		c.handlePageChanged(m.Page)
	}
}

// handleFaderMoved routes a physical fader movement to the bound session.
func (c *Coordinator) handleFaderMoved(channel uint8, value float64) {
	c.fader[channel] = value

	s, ok := c.bindings.Resolve(c.page, channel)
	if !ok {
		// Unassigned for now; remember the position only.
		c.dirty = true
		return
	}

	if err := c.router.SetVolume(s.ID, value); err != nil {
		c.logError("", "set volume: "+err.Error())
		return
	}
	c.pushChannelDisplay(channel)
	if s.ID == audio.MasterID {
		c.send(&wire.SetLEDBar{Level: value})
	}
	c.dirty = true
}

// handlePageChanged follows the device onto the new page.
//
// The device owns page cycling; the host never infers what the device shows.
// Any page announcement, expected or not, is answered with the full state of
// that page.
func (c *Coordinator) handlePageChanged(page uint8) {
	if page >= c.cfg.Pages {
		// Layout mismatch, force the device back to a page we have.
		c.logStateChange(log.StateEntityPage, fmt.Sprintf("device page %d out of range, forcing %d", page, c.page))
		c.pushFullState()
		return
	}
	c.page = page
	c.logStateChange(log.StateEntityPage, fmt.Sprintf("active page %d", page))
	c.pushPageState()
	c.save()
}

// handleAudio folds one platform event in and refreshes affected channels.
func (c *Coordinator) handleAudio(ev audio.Event) {
	echo := c.router.Apply(ev)
	if echo {
		// Our own write reported back; the device already shows it.
		return
	}

	switch ev.Kind {
	case audio.SessionAdded, audio.SessionRemoved:
		for _, slot := range c.bindings.SlotsFor(ev.ID) {
			if slot.Page != c.page {
				continue
			}
			c.pushChannel(slot.Channel)
		}

	case audio.VolumeChanged:
		if ev.ID == audio.MasterID {
			c.send(&wire.SetLEDBar{Level: ev.Session.Volume})
		}
		for _, slot := range c.bindings.SlotsFor(ev.ID) {
			if slot.Page != c.page {
				continue
			}
			c.fader[slot.Channel] = ev.Session.Volume
			c.send(&wire.SetVolume{Channel: slot.Channel, Value: ev.Session.Volume})
			c.pushChannelDisplay(slot.Channel)
		}
	}
}

// pushFullState retransmits the page and every channel.
func (c *Coordinator) pushFullState() {
	c.send(&wire.PageChanged{Page: c.page})
	c.pushPageState()
	if master, ok := c.router.Get(audio.MasterID); ok {
		c.send(&wire.SetLEDBar{Level: master.Volume})
	}
}

// pushPageState retransmits every channel of the current page.
func (c *Coordinator) pushPageState() {
	for ch := uint8(0); ch < wire.ChannelCount; ch++ {
		c.pushChannel(ch)
	}
}

// pushChannel sends position, display text and LED color for one channel.
func (c *Coordinator) pushChannel(channel uint8) {
	if s, ok := c.bindings.Resolve(c.page, channel); ok {
		c.fader[channel] = s.Volume
		c.send(&wire.SetVolume{Channel: channel, Value: s.Volume})
	}
	c.pushChannelDisplay(channel)
}

// pushChannelDisplay recomposes display text and LED color for one channel.
func (c *Coordinator) pushChannelDisplay(channel uint8) {
	line1, line2 := unassignedLine, ""
	color := colorUnassigned

	if id, bound := c.bindings.Identity(c.page, channel); bound {
		if s, known := c.router.Get(id); known && s.Live {
			line1 = truncateName(s.DisplayName)
			line2 = percent(s.Volume)
			color = colorBound
		} else {
			// Bound but dead: keep the name visible, mark it stale.
			line1 = truncateName(id)
			color = colorBoundDead
		}
	}

	c.send(&wire.RenderDisplay{Channel: channel, Line1: line1, Line2: line2})
	c.send(&wire.SetLED{Channel: channel, R: color[0], G: color[1], B: color[2]})
}

// send writes one message to the device, if attached. Without a link the
// state tables keep the latest values and the next link-up retransmits them.
func (c *Coordinator) send(msg any) {
	if c.link == nil {
		return
	}
	if err := c.link.framer.WriteMessage(msg); err != nil {
		c.logError(c.link.id, "write: "+err.Error())
	}
}

// save persists page, fader values and bindings immediately.
func (c *Coordinator) save() {
	c.dirty = false
	if c.store == nil {
		return
	}
	values := make([]float64, len(c.fader))
	copy(values, c.fader[:])
	if err := c.store.Save(c.page, values, c.bindings.Export()); err != nil {
		c.logError("", "save state: "+err.Error())
	}
}

// flushSave persists fader positions marked dirty since the last save.
func (c *Coordinator) flushSave() {
	if c.dirty {
		c.save()
	}
}

// logStateChange emits a session-layer state change event.
func (c *Coordinator) logStateChange(entity log.StateEntity, reason string) {
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		LocalRole: log.RoleHost,
		StateChange: &log.StateChangeEvent{
			Entity: entity,
			Reason: reason,
		},
	})
}

// logError emits a session-layer error event.
func (c *Coordinator) logError(connID, msg string) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerSession,
		Category:     log.CategoryError,
		LocalRole:    log.RoleHost,
		Error:        &log.ErrorEventData{Layer: log.LayerSession, Message: msg},
	})
}
