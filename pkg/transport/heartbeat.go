package transport

import (
	"context"
	"sync"
	"time"
)

// Heartbeat constants.
const (
	// DefaultHeartbeatInterval is the default interval between heartbeats.
	DefaultHeartbeatInterval = 1 * time.Second

	// DefaultMissLimit is the number of missed intervals before the link is
	// considered lost.
	DefaultMissLimit = 3
)

// LinkConfig configures link liveness monitoring.
type LinkConfig struct {
	// Interval is the interval between outgoing heartbeats.
	Interval time.Duration

	// MissLimit is the number of intervals without an incoming heartbeat
	// before the link is declared lost.
	MissLimit int
}

// DefaultLinkConfig returns the default link monitor configuration.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		Interval:  DefaultHeartbeatInterval,
		MissLimit: DefaultMissLimit,
	}
}

// Timeout returns how long the link may be silent before it is declared lost.
func (c LinkConfig) Timeout() time.Duration {
	return c.Interval * time.Duration(c.MissLimit)
}

// LinkMonitor sends heartbeats at a fixed interval and watches for incoming
// ones. Both ends of the serial link run one. When no heartbeat (or any
// other traffic, via Received) arrives within the configured timeout, the
// timeout callback fires once; it fires again only after the link recovers.
type LinkMonitor struct {
	config LinkConfig

	// Callbacks
	sendHeartbeat func() error
	onTimeout     func()

	mu           sync.Mutex
	lastReceived time.Time
	timedOut     bool
	running      bool
	stopCh       chan struct{}
}

// NewLinkMonitor creates a link monitor.
// sendHeartbeat is called every interval; onTimeout when the link goes silent.
func NewLinkMonitor(config LinkConfig, sendHeartbeat func() error, onTimeout func()) *LinkMonitor {
	if config.Interval <= 0 {
		config.Interval = DefaultHeartbeatInterval
	}
	if config.MissLimit <= 0 {
		config.MissLimit = DefaultMissLimit
	}
	return &LinkMonitor{
		config:        config,
		sendHeartbeat: sendHeartbeat,
		onTimeout:     onTimeout,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the monitoring loop.
func (lm *LinkMonitor) Start(ctx context.Context) {
	lm.mu.Lock()
	if lm.running {
		lm.mu.Unlock()
		return
	}
	lm.running = true
	lm.timedOut = false
	lm.lastReceived = time.Now()
	lm.stopCh = make(chan struct{})
	lm.mu.Unlock()

	go lm.loop(ctx)
}

// Stop stops the monitoring loop.
func (lm *LinkMonitor) Stop() {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if !lm.running {
		return
	}
	lm.running = false
	close(lm.stopCh)
}

// Received records that a heartbeat (or any frame) arrived from the peer.
func (lm *LinkMonitor) Received() {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.lastReceived = time.Now()
	lm.timedOut = false
}

// Alive reports whether the link is currently considered live.
func (lm *LinkMonitor) Alive() bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return !lm.timedOut && time.Since(lm.lastReceived) <= lm.config.Timeout()
}

// IsRunning returns true if the monitor loop is active.
func (lm *LinkMonitor) IsRunning() bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.running
}

// loop sends heartbeats and checks for silence.
func (lm *LinkMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(lm.config.Interval)
	defer ticker.Stop()

	// Send an initial heartbeat immediately so the peer sees us fast.
	_ = lm.sendHeartbeat()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lm.stopCh:
			return
		case <-ticker.C:
			lm.tick()
		}
	}
}

// tick sends one heartbeat and evaluates the silence window.
func (lm *LinkMonitor) tick() {
	// A send failure is not itself a timeout; silence detection covers it.
	_ = lm.sendHeartbeat()

	lm.mu.Lock()
	silent := time.Since(lm.lastReceived) > lm.config.Timeout()
	fire := silent && !lm.timedOut
	if fire {
		lm.timedOut = true
	}
	lm.mu.Unlock()

	if fire && lm.onTimeout != nil {
		lm.onTimeout()
	}
}
