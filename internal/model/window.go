package model

import (
	"fmt"
	"strings"
	"time"
)

// Window selects the lookback period of a chart.
type Window string

const (
	Window1H  Window = "1h"
	Window4H  Window = "4h"
	Window24H Window = "24h"
	Window7D  Window = "7d"
	Window30D Window = "30d"
	Window90D Window = "90d"
	Window1Y  Window = "1y"
	WindowAll Window = "all"
)

// Windows lists every supported window, shortest first.
var Windows = []Window{Window1H, Window4H, Window24H, Window7D, Window30D, Window90D, Window1Y, WindowAll}

var lookbacks = map[Window]time.Duration{
	Window1H:  time.Hour,
	Window4H:  4 * time.Hour,
	Window24H: 24 * time.Hour,
	Window7D:  7 * 24 * time.Hour,
	Window30D: 30 * 24 * time.Hour,
	Window90D: 90 * 24 * time.Hour,
	Window1Y:  365 * 24 * time.Hour,
	WindowAll: 0,
}

// ParseWindow resolves a window name case-insensitively.
func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := lookbacks[w]; !ok {
		return "", fmt.Errorf("unknown window %q", s)
	}
	return w, nil
}

// Lookback returns the window duration. WindowAll returns 0 (unbounded).
func (w Window) Lookback() time.Duration {
	return lookbacks[w]
}

// Cutoff returns the earliest timestamp included in the window relative to now.
// ok is false when the window is unbounded.
func (w Window) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	d := w.Lookback()
	if d == 0 {
		return time.Time{}, false
	}
	return now.Add(-d), true
}

func (w Window) String() string { return string(w) }
