package audio

// MasterID is the session identity of the system master volume.
// It is always present and always live.
const MasterID = "system.master"

// MasterName is the display name for the master volume session.
const MasterName = "Master"

// Session represents one audio-producing entity on the host.
type Session struct {
	// ID is the stable identity, typically the process image name
	// (e.g. "spotify.exe") or MasterID.
	ID string

	// DisplayName is the human-readable name shown on the channel display.
	DisplayName string

	// Volume is the current volume, 0.0..1.0.
	Volume float64

	// Muted reports whether the session is muted.
	Muted bool

	// Live reports whether the session currently exists on the host.
	// Dead sessions stay in the table so bindings can re-resolve when the
	// application restarts.
	Live bool
}

// EventKind classifies a session lifecycle event.
type EventKind uint8

const (
	// SessionAdded indicates a new session appeared.
	SessionAdded EventKind = iota

	// SessionRemoved indicates a session ended.
	SessionRemoved

	// VolumeChanged indicates a session's volume changed outside the router,
	// e.g. the application set its own volume.
	VolumeChanged
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case SessionAdded:
		return "SESSION_ADDED"
	case SessionRemoved:
		return "SESSION_REMOVED"
	case VolumeChanged:
		return "VOLUME_CHANGED"
	default:
		return "UNKNOWN"
	}
}

// Event is a session lifecycle notification from the platform mixer.
type Event struct {
	Kind EventKind

	// ID identifies the session the event concerns.
	ID string

	// Session carries the session data for SessionAdded and VolumeChanged.
	Session Session
}

// API is the host audio capability the router consumes.
// Implementations wrap the platform mixer; SimAPI simulates one.
type API interface {
	// Sessions enumerates the currently live audio sessions.
	Sessions() ([]Session, error)

	// SetVolume sets the absolute volume of a session.
	SetVolume(id string, volume float64) error

	// Events returns the channel delivering session lifecycle events.
	// The channel is closed when the API is released.
	Events() <-chan Event

	// Close releases the platform resources.
	Close() error
}
