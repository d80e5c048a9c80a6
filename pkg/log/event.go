package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time

	// ConnectionID uniquely identifies the serial/TCP link (UUID).
	ConnectionID string

	// Direction indicates message flow.
	Direction Direction

	// Layer where the event was captured.
	Layer Layer

	// Category classifies the event type.
	Category Category

	// LocalRole indicates whether this end is the device or the host.
	LocalRole Role

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       // Transport layer
	Message     *MessageEvent     // Wire layer (decoded)
	StateChange *StateChangeEvent // Connection/link/page state
	Error       *ErrorEventData   // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerSession is the coordinator/router layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is the device or the host.
type Role uint8

const (
	// RoleDevice indicates the embedded fader device.
	RoleDevice Role = 0
	// RoleHost indicates the desktop companion process.
	RoleHost Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "DEVICE"
	case RoleHost:
		return "HOST"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including header and checksum).
	Size int

	// Data is the raw payload bytes (may be truncated for large frames).
	Data []byte

	// Truncated indicates if Data was truncated.
	Truncated bool
}

// MessageEvent captures a decoded protocol message at the wire layer.
type MessageEvent struct {
	// Type is the wire message type name (e.g. "FADER_MOVED").
	Type string

	// Channel is the fader channel, if the message addresses one.
	Channel *uint8

	// Page is the page index, for page messages.
	Page *uint8

	// Value is the normalized value, for fader/volume messages.
	Value *float64
}

// StateChangeEvent captures connection, link and page lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity

	// OldState is the previous state (may be empty).
	OldState string

	// NewState is the new state.
	NewState string

	// Reason for the change (if available).
	Reason string
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityLink indicates a heartbeat/link liveness change.
	StateEntityLink StateEntity = 1
	// StateEntityPage indicates the active page changed.
	StateEntityPage StateEntity = 2
	// StateEntityBinding indicates a binding assignment changed.
	StateEntityBinding StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityLink:
		return "LINK"
	case StateEntityPage:
		return "PAGE"
	case StateEntityBinding:
		return "BINDING"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer

	// Message is the error message.
	Message string

	// Context describes what operation was being performed.
	Context string
}
