package audio

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultSuppressionWindow is how long after a local SetVolume an external
// VolumeChanged notification for the same session is treated as an echo.
const DefaultSuppressionWindow = 500 * time.Millisecond

// ErrUnknownSession indicates a volume operation on an identity the router
// has never seen.
var ErrUnknownSession = errors.New("unknown session")

// Router owns the session table and is its single writer.
//
// All mutating methods must be called from one goroutine (the coordinator);
// Snapshot and Get may be called from anywhere.
type Router struct {
	api API

	mu       sync.RWMutex
	sessions map[string]*Session

	// suppressUntil records, per session identity, the deadline until which
	// external volume notifications are considered echoes of our own write.
	suppressUntil map[string]time.Time
	window        time.Duration

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewRouter creates a router over the given audio capability.
func NewRouter(api API) *Router {
	r := &Router{
		api:           api,
		sessions:      make(map[string]*Session),
		suppressUntil: make(map[string]time.Time),
		window:        DefaultSuppressionWindow,
		now:           time.Now,
	}
	// The master volume always exists.
	r.sessions[MasterID] = &Session{
		ID:          MasterID,
		DisplayName: MasterName,
		Volume:      1.0,
		Live:        true,
	}
	return r
}

// SetSuppressionWindow overrides the echo suppression window.
func (r *Router) SetSuppressionWindow(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.window = d
}

// Refresh re-enumerates live sessions from the platform and reconciles the
// table: new sessions are added, vanished ones are marked dead (never
// deleted, so bindings can re-resolve later).
func (r *Router) Refresh() error {
	live, err := r.api.Sessions()
	if err != nil {
		return fmt.Errorf("failed to enumerate sessions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(live))
	for _, s := range live {
		seen[s.ID] = true
		if existing, ok := r.sessions[s.ID]; ok {
			existing.DisplayName = s.DisplayName
			existing.Volume = s.Volume
			existing.Muted = s.Muted
			existing.Live = true
		} else {
			copied := s
			copied.Live = true
			r.sessions[s.ID] = &copied
		}
	}
	for id, s := range r.sessions {
		if id == MasterID {
			continue
		}
		if !seen[id] {
			s.Live = false
		}
	}
	return nil
}

// SetVolume applies a fader-originated volume change to the resolved session
// and arms echo suppression for it. The table is updated immediately so
// snapshots reflect the commanded value.
func (r *Router) SetVolume(id string, volume float64) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	s.Volume = volume
	r.suppressUntil[id] = r.now().Add(r.window)
	r.mu.Unlock()

	if err := r.api.SetVolume(id, volume); err != nil {
		return fmt.Errorf("failed to set volume for %s: %w", id, err)
	}
	return nil
}

// Apply folds one platform event into the table.
//
// The returned echo flag is true when the event is a VolumeChanged that
// matches a recent local write; callers must not forward such events to the
// device.
func (r *Router) Apply(ev Event) (echo bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case SessionAdded:
		if existing, ok := r.sessions[ev.ID]; ok {
			existing.DisplayName = ev.Session.DisplayName
			existing.Volume = ev.Session.Volume
			existing.Muted = ev.Session.Muted
			existing.Live = true
		} else {
			copied := ev.Session
			copied.ID = ev.ID
			copied.Live = true
			r.sessions[ev.ID] = &copied
		}

	case SessionRemoved:
		if s, ok := r.sessions[ev.ID]; ok && ev.ID != MasterID {
			s.Live = false
		}

	case VolumeChanged:
		s, ok := r.sessions[ev.ID]
		if !ok {
			return false
		}
		s.Volume = ev.Session.Volume
		s.Muted = ev.Session.Muted
		if until, armed := r.suppressUntil[ev.ID]; armed && r.now().Before(until) {
			// Our own recent write reported back by the platform.
			return true
		}
	}
	return false
}

// Get returns a snapshot of one session.
func (r *Router) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Snapshot returns a copy of all known sessions, live and dead,
// sorted by identity for stable listings.
func (r *Router) Snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
