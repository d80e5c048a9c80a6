package binding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Dentalcow/cybermix/pkg/audio"
)

// Binding errors.
var (
	// ErrBindingConflict indicates the target is already bound to another
	// channel on the same page. The prior binding is unchanged.
	ErrBindingConflict = errors.New("target already bound on this page")

	// ErrOutOfRange indicates a page or channel index outside the layout.
	ErrOutOfRange = errors.New("page or channel out of range")
)

// Slot addresses one binding slot.
type Slot struct {
	Page    uint8
	Channel uint8
}

// Resolver looks up a session snapshot by identity.
// *audio.Router satisfies it.
type Resolver interface {
	Get(id string) (audio.Session, bool)
}

// Manager owns the page/channel binding table.
//
// Mutations must come from one goroutine (the coordinator); reads are safe
// from anywhere.
type Manager struct {
	mu       sync.RWMutex
	pages    int
	channels int

	// slots[page][channel] holds the bound identity, "" when unassigned.
	slots [][]string

	resolver Resolver
}

// NewManager creates a binding manager for the given layout.
func NewManager(pages, channels int, resolver Resolver) *Manager {
	slots := make([][]string, pages)
	for i := range slots {
		slots[i] = make([]string, channels)
	}
	return &Manager{
		pages:    pages,
		channels: channels,
		slots:    slots,
		resolver: resolver,
	}
}

// Pages returns the number of pages.
func (m *Manager) Pages() int { return m.pages }

// Channels returns the number of channels per page.
func (m *Manager) Channels() int { return m.channels }

// Assign binds a target identity to a slot.
//
// Assigning the identity a slot already holds is a no-op. Assigning an
// identity that another channel on the same page holds fails with
// ErrBindingConflict and mutates nothing.
func (m *Manager) Assign(page, channel uint8, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int(page) >= m.pages || int(channel) >= m.channels {
		return fmt.Errorf("%w: page %d channel %d", ErrOutOfRange, page, channel)
	}
	if target == "" {
		m.slots[page][channel] = ""
		return nil
	}
	for ch, id := range m.slots[page] {
		if id == target && ch != int(channel) {
			return fmt.Errorf("%w: %s on channel %d", ErrBindingConflict, target, ch)
		}
	}
	m.slots[page][channel] = target
	return nil
}

// Unassign clears a slot.
func (m *Manager) Unassign(page, channel uint8) error {
	return m.Assign(page, channel, "")
}

// Identity returns the bound identity for a slot, with ok=false when the
// slot is unassigned or out of range.
func (m *Manager) Identity(page, channel uint8) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if int(page) >= m.pages || int(channel) >= m.channels {
		return "", false
	}
	id := m.slots[page][channel]
	return id, id != ""
}

// Resolve returns the live session bound to a slot.
//
// ok=false means "unassigned for now": the slot has no binding, or the bound
// identity has no live session. Callers treat it as an empty channel, not an
// error.
func (m *Manager) Resolve(page, channel uint8) (audio.Session, bool) {
	id, bound := m.Identity(page, channel)
	if !bound {
		return audio.Session{}, false
	}
	s, ok := m.resolver.Get(id)
	if !ok || !s.Live {
		return audio.Session{}, false
	}
	return s, true
}

// SlotsFor returns every slot bound to the given identity, across all pages.
// Used to refresh affected channels when a session reappears.
func (m *Manager) SlotsFor(target string) []Slot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Slot
	for p, page := range m.slots {
		for c, id := range page {
			if id == target {
				out = append(out, Slot{Page: uint8(p), Channel: uint8(c)})
			}
		}
	}
	return out
}

// Export returns all assigned slots as persistence records.
func (m *Manager) Export() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for p, page := range m.slots {
		for c, id := range page {
			if id != "" {
				out = append(out, Record{Page: uint8(p), Channel: uint8(c), Target: id})
			}
		}
	}
	return out
}

// Import loads persisted records into the table. Records that are out of
// range or conflict with an already imported record are dropped through the
// warn callback; the rest of the import continues.
func (m *Manager) Import(records []Record, warn func(rec Record, err error)) {
	for _, rec := range records {
		if err := m.Assign(rec.Page, rec.Channel, rec.Target); err != nil {
			if warn != nil {
				warn(rec, err)
			}
		}
	}
}
