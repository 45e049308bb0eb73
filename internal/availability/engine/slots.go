package engine

import (
	"iter"
	"time"

	"agenda/pkg/timewindow"
)

// GenerateSlots tiles window with candidates of durationMinutes, stepping by
// granularityMinutes. A candidate is yielded only if it ends at or before the
// end of window.
//
// bufferMinutes is accepted for call-site symmetry and does not change the
// tiling; buffer is applied when staff occupancy is checked.
//
// The sequence is lazy and may be ranged over more than once.
func GenerateSlots(window timewindow.Window, durationMinutes, bufferMinutes, granularityMinutes int) iter.Seq[timewindow.Window] {
	_ = bufferMinutes
	return func(yield func(timewindow.Window) bool) {
		if durationMinutes <= 0 || granularityMinutes <= 0 || !window.Valid() {
			return
		}
		length := time.Duration(durationMinutes) * time.Minute
		step := time.Duration(granularityMinutes) * time.Minute
		for start := window.Start; !start.Add(length).After(window.End); start = start.Add(step) {
			if !yield(timewindow.New(start, start.Add(length))) {
				return
			}
		}
	}
}
