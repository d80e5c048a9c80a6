package audio

import (
	"fmt"
	"sync"
)

// SimAPI is an in-memory audio capability for development and tests.
// It behaves like a platform mixer: sessions can appear and disappear, and
// every SetVolume is reported back through the event channel exactly as the
// real mixers do, which exercises echo suppression end to end.
type SimAPI struct {
	mu       sync.Mutex
	sessions map[string]Session
	events   chan Event
	closed   bool
}

// NewSimAPI creates a simulated mixer pre-populated with the given process
// names, each at full volume.
func NewSimAPI(apps ...string) *SimAPI {
	s := &SimAPI{
		sessions: make(map[string]Session, len(apps)),
		events:   make(chan Event, 64),
	}
	for _, app := range apps {
		s.sessions[app] = Session{ID: app, DisplayName: app, Volume: 1.0, Live: true}
	}
	return s
}

// Sessions returns the currently live sessions.
func (s *SimAPI) Sessions() ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

// SetVolume sets a session volume and, like real platform mixers, reports
// the change back as a VolumeChanged event.
func (s *SimAPI) SetVolume(id string, volume float64) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok && id != MasterID {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if !ok {
		sess = Session{ID: MasterID, DisplayName: MasterName, Live: true}
	}
	sess.Volume = volume
	s.sessions[id] = sess
	closed := s.closed
	s.mu.Unlock()

	if !closed {
		s.emit(Event{Kind: VolumeChanged, ID: id, Session: sess})
	}
	return nil
}

// Events returns the lifecycle event channel.
func (s *SimAPI) Events() <-chan Event {
	return s.events
}

// Close releases the simulated mixer.
func (s *SimAPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// AddSession simulates an application starting.
func (s *SimAPI) AddSession(id string, volume float64) {
	sess := Session{ID: id, DisplayName: id, Volume: volume, Live: true}
	s.mu.Lock()
	s.sessions[id] = sess
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.emit(Event{Kind: SessionAdded, ID: id, Session: sess})
	}
}

// RemoveSession simulates an application exiting.
func (s *SimAPI) RemoveSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.emit(Event{Kind: SessionRemoved, ID: id})
	}
}

// ChangeVolume simulates an application changing its own volume.
func (s *SimAPI) ChangeVolume(id string, volume float64) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.Volume = volume
		s.sessions[id] = sess
	}
	closed := s.closed
	s.mu.Unlock()
	if ok && !closed {
		s.emit(Event{Kind: VolumeChanged, ID: id, Session: sess})
	}
}

// emit delivers an event without blocking the caller; if the consumer is
// slow the oldest event is dropped, matching lossy platform notifications.
func (s *SimAPI) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- ev:
		default:
		}
	}
}

// Compile-time interface satisfaction check.
var _ API = (*SimAPI)(nil)
