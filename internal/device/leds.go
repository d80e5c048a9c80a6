package device

// Bar colors, matching the enclosure accent color.
var (
	barFill = [3]uint8{8, 217, 214}
	barDim  = [3]uint8{32, 32, 32}
)

// LEDs composes the addressable strip from two layers: a proportional fill
// bar across all pixels, overridden per channel by host-set feedback colors
// on the first five pixels.
type LEDs struct {
	strip LEDStrip

	level    float64
	override [ChannelCount]struct {
		set     bool
		r, g, b uint8
	}
	dirty bool
}

// NewLEDs creates the LED compositor.
func NewLEDs(strip LEDStrip) *LEDs {
	return &LEDs{strip: strip, dirty: true}
}

// SetBar sets the fill level of the bar, 0.0..1.0.
func (l *LEDs) SetBar(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	if level == l.level {
		return
	}
	l.level = level
	l.dirty = true
}

// SetChannel sets one channel's feedback color. A non-black color overrides
// the bar on that channel's pixel; black clears the override.
func (l *LEDs) SetChannel(channel uint8, r, g, b uint8) {
	if channel >= ChannelCount {
		return
	}
	o := &l.override[channel]
	o.set = r != 0 || g != 0 || b != 0
	o.r, o.g, o.b = r, g, b
	l.dirty = true
}

// Refresh latches the composed colors onto the strip when anything changed.
func (l *LEDs) Refresh() {
	if !l.dirty {
		return
	}
	count := l.strip.Count()
	lit := int(l.level*float64(count) + 0.5)
	for i := 0; i < count; i++ {
		c := barDim
		if i < lit {
			c = barFill
		}
		if i < ChannelCount {
			if o := &l.override[i]; o.set {
				c = [3]uint8{o.r, o.g, o.b}
			}
		}
		l.strip.Set(i, c[0], c[1], c[2])
	}
	if err := l.strip.Show(); err != nil {
		// Leave dirty so the next cycle retries.
		return
	}
	l.dirty = false
}
