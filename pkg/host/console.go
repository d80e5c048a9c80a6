package host

import (
	"fmt"

	"github.com/Dentalcow/cybermix/pkg/audio"
	"github.com/Dentalcow/cybermix/pkg/binding"
	"github.com/Dentalcow/cybermix/pkg/log"
	"github.com/Dentalcow/cybermix/pkg/wire"
)

// The console entry points below may be called from any goroutine. Each one
// runs on the coordinator goroutine through the ordered queue, so console
// mutations serialize with device frames and audio events. They require a
// running Run loop.

// do runs fn on the coordinator goroutine and waits for it.
func (c *Coordinator) do(fn func()) {
	done := make(chan struct{})
	c.events <- event{command: func() {
		fn()
		close(done)
	}}
	<-done
}

// Assign binds a target identity to a slot and refreshes the device.
func (c *Coordinator) Assign(page, channel uint8, target string) error {
	var err error
	c.do(func() {
		err = c.bindings.Assign(page, channel, target)
		if err != nil {
			return
		}
		c.logStateChange(log.StateEntityBinding,
			fmt.Sprintf("assigned %d/%d -> %s", page, channel, target))
		if page == c.page {
			c.pushChannel(channel)
		}
		c.save()
	})
	return err
}

// Unassign clears a slot and refreshes the device.
func (c *Coordinator) Unassign(page, channel uint8) error {
	var err error
	c.do(func() {
		err = c.bindings.Unassign(page, channel)
		if err != nil {
			return
		}
		c.logStateChange(log.StateEntityBinding,
			fmt.Sprintf("unassigned %d/%d", page, channel))
		if page == c.page {
			c.pushChannel(channel)
		}
		c.save()
	})
	return err
}

// SetPage forces the active page on both sides.
func (c *Coordinator) SetPage(page uint8) error {
	var err error
	c.do(func() {
		if page >= c.cfg.Pages {
			err = fmt.Errorf("%w: page %d", binding.ErrOutOfRange, page)
			return
		}
		c.page = page
		c.send(&wire.PageChanged{Page: page})
		c.pushPageState()
		c.save()
	})
	return err
}

// Page returns the active page.
func (c *Coordinator) Page() uint8 {
	var page uint8
	c.do(func() { page = c.page })
	return page
}

// Connected reports whether a device link is attached.
func (c *Coordinator) Connected() bool {
	var up bool
	c.do(func() { up = c.link != nil })
	return up
}

// Sessions returns a snapshot of all known sessions, live and dead.
func (c *Coordinator) Sessions() []audio.Session {
	return c.router.Snapshot()
}

// Bindings returns all assigned slots.
func (c *Coordinator) Bindings() []binding.Record {
	return c.bindings.Export()
}

// FaderValues returns the last known fader positions.
func (c *Coordinator) FaderValues() []float64 {
	values := make([]float64, wire.ChannelCount)
	c.do(func() { copy(values, c.fader[:]) })
	return values
}
