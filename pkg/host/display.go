package host

import "strconv"

// Channel LED colors. Cyan matches the enclosure accent; a dead binding
// shows dim red so it reads differently from a plain unassigned channel.
var (
	colorBound      = [3]uint8{8, 217, 214}
	colorBoundDead  = [3]uint8{48, 0, 0}
	colorUnassigned = [3]uint8{32, 32, 32}
)

// maxNameRunes is how much of a target name fits on the display.
const maxNameRunes = 8

// unassignedLine is shown on channels without a usable binding.
const unassignedLine = "---"

// truncateName shortens a display name to what fits on one line.
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxNameRunes {
		return name
	}
	return string(runes[:maxNameRunes])
}

// percent formats a normalized volume as "NN%".
func percent(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return strconv.Itoa(int(v*100+0.5)) + "%"
}
