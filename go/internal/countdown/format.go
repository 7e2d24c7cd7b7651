package countdown

import "fmt"

const (
	// ProgressReferenceSeconds is the fixed span the progress ring is normalized against (100 hours),
	// independent of the configured window
	ProgressReferenceSeconds = 3600 * 100
	// ProgressCircumference is the stroke length of the progress ring (about 2*pi*100)
	ProgressCircumference = 628.0
)

// State is one countdown emission
type State struct {
	Remaining int     `json:"remaining"`
	Display   string  `json:"display"`
	Percent   float64 `json:"percent"`
	Offset    float64 `json:"offset"`
	Running   bool    `json:"running"`
}

// NewState derives the display fields for remaining seconds. A negative value is the
// terminal state: it is not running and has nothing to display.
func NewState(remaining int) State {
	percent, offset := Progress(remaining)
	return State{
		Remaining: remaining,
		Display:   Format(remaining),
		Percent:   percent,
		Offset:    offset,
		Running:   remaining >= 0,
	}
}

// Format renders remaining seconds as HH:MM:SS. Hours are not capped at 99.
func Format(remaining int) string {
	if remaining < 0 {
		return ""
	}
	h := remaining / 3600
	m := (remaining % 3600) / 60
	s := remaining % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Progress returns the fraction of the 100 hour reference span left and the matching
// ring stroke offset. Neither value is clamped.
func Progress(remaining int) (percent, offset float64) {
	percent = float64(remaining) / ProgressReferenceSeconds
	offset = ProgressCircumference * (1 - percent)
	return percent, offset
}
