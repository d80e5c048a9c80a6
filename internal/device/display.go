package device

// displayContent is the last text queued for one display.
type displayContent struct {
	line1, line2 string
	dirty        bool
}

// Renderer owns the five channel displays behind the multiplexer. Text is
// queued and blitted during the refresh phase of the polling cycle; a
// display that fails to update stays dirty and is retried on the next
// refresh without blocking the other displays.
type Renderer struct {
	mux *Mux
	drv DisplayDriver

	displays [ChannelCount]displayContent
}

// NewRenderer creates a renderer for the channel displays.
func NewRenderer(mux *Mux, drv DisplayDriver) *Renderer {
	return &Renderer{mux: mux, drv: drv}
}

// Queue stages text for one display. Unchanged text is not re-blitted.
func (r *Renderer) Queue(channel uint8, line1, line2 string) {
	if channel >= ChannelCount {
		return
	}
	d := &r.displays[channel]
	if d.line1 == line1 && d.line2 == line2 && !d.dirty {
		return
	}
	d.line1 = line1
	d.line2 = line2
	d.dirty = true
}

// Refresh blits all dirty displays. A failed display keeps its dirty flag
// and the refresh moves on to the next one.
func (r *Renderer) Refresh() {
	for ch := uint8(0); ch < ChannelCount; ch++ {
		d := &r.displays[ch]
		if !d.dirty {
			continue
		}
		if err := r.mux.SelectDisplay(ch); err != nil {
			continue
		}
		if err := r.drv.Draw(d.line1, d.line2); err != nil {
			continue
		}
		d.dirty = false
	}
}
