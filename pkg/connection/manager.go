package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Connection errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
)

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateReconnecting indicates automatic reconnection is in progress.
	StateReconnecting

	// StateClosed indicates the manager has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectFunc is called to establish a connection.
type ConnectFunc func(ctx context.Context) error

// connectAttemptTimeout bounds one connection attempt during reconnection.
const connectAttemptTimeout = 30 * time.Second

// Manager manages connection lifecycle with automatic reconnection.
type Manager struct {
	mu sync.RWMutex

	state     State
	backoff   *Backoff
	connectFn ConnectFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	reconnectCh chan struct{}

	onStateChange func(oldState, newState State)
	onConnected   func()
	onDisconnected func()
}

// NewManager creates a new connection manager.
func NewManager(connectFn ConnectFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		state:       StateDisconnected,
		backoff:     NewBackoff(),
		connectFn:   connectFn,
		ctx:         ctx,
		cancel:      cancel,
		reconnectCh: make(chan struct{}, 1),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true if currently connected.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnConnected sets a callback for successful connection.
func (m *Manager) OnConnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnDisconnected sets a callback for connection loss.
func (m *Manager) OnDisconnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// Connect initiates a connection.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateClosed:
		m.mu.Unlock()
		return ErrConnectionClosed
	}
	m.transitionLocked(StateConnecting)
	m.mu.Unlock()

	if err := m.connectFn(ctx); err != nil {
		m.mu.Lock()
		m.transitionLocked(StateDisconnected)
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.transitionLocked(StateConnected)
	m.backoff.Reset()
	cb := m.onConnected
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// NotifyConnectionLost should be called when a connection loss is detected,
// e.g. by the heartbeat monitor or a read error. It triggers reconnection.
func (m *Manager) NotifyConnectionLost() {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(StateReconnecting)
	cb := m.onDisconnected
	m.mu.Unlock()

	if cb != nil {
		cb()
	}

	select {
	case m.reconnectCh <- struct{}{}:
	default:
		// Already pending
	}
}

// StartReconnectLoop starts the background reconnection loop.
// Must be called once before reconnection will work.
func (m *Manager) StartReconnectLoop() {
	m.wg.Add(1)
	go m.reconnectLoop()
}

// Close shuts down the connection manager.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(StateClosed)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// BackoffAttempts returns the current number of reconnection attempts.
func (m *Manager) BackoffAttempts() int {
	return m.backoff.Attempts()
}

// transitionLocked changes state and fires the state-change callback.
// Caller must hold m.mu; the callback runs without the lock released, so
// implementations must not call back into the manager.
func (m *Manager) transitionLocked(newState State) {
	oldState := m.state
	if oldState == newState {
		return
	}
	m.state = newState
	if m.onStateChange != nil {
		m.onStateChange(oldState, newState)
	}
}

// reconnectLoop runs in a goroutine and handles reconnection attempts.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.reconnectCh:
			m.attemptReconnect()
		}
	}
}

// attemptReconnect retries the connect function with backoff until it
// succeeds or the manager closes.
func (m *Manager) attemptReconnect() {
	for {
		switch m.State() {
		case StateClosed, StateConnected:
			return
		}

		delay := m.backoff.Next()

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(m.ctx, connectAttemptTimeout)
		err := m.connectFn(ctx)
		cancel()

		if err == nil {
			m.mu.Lock()
			m.transitionLocked(StateConnected)
			m.backoff.Reset()
			cb := m.onConnected
			m.mu.Unlock()

			if cb != nil {
				cb()
			}
			return
		}
		// Failed, loop with the next backoff delay.
	}
}
