package storyboard

import "fmt"

// FormatTimestamp renders whole seconds as a WebVTT timestamp. Cue boundaries
// always fall on whole seconds, so the millisecond field is fixed at 000.
// Hours are not capped at two digits.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	m, s := seconds/60, seconds%60
	h, m := m/60, m%60
	return fmt.Sprintf("%02d:%02d:%02d.000", h, m, s)
}
