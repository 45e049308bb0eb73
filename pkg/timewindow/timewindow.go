// Package timewindow holds the interval primitives every availability and
// booking computation is built on. Windows are half-open: [Start, End).
//
// Overlaps is the only overlap predicate in the module. Code that needs to
// ask whether two intervals collide must call it instead of comparing
// timestamps inline.
package timewindow

import (
	"fmt"
	"time"
)

type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

func New(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// Overlaps reports whether a and b share at least one instant.
// A window ending exactly when the other starts does not overlap it.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner Window) bool {
	return !inner.Start.Before(outer.Start) && !outer.End.Before(inner.End)
}

// DurationMinutes truncates toward zero. Reversed windows yield a negative value.
func DurationMinutes(w Window) int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

// Intersect returns the common part of a and b, or false when they do not overlap.
func Intersect(a, b Window) (Window, bool) {
	if !Overlaps(a, b) {
		return Window{}, false
	}
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	return Window{Start: start, End: end}, true
}

func (w Window) Overlaps(other Window) bool {
	return Overlaps(w, other)
}

func (w Window) Contains(inner Window) bool {
	return Contains(w, inner)
}

func (w Window) DurationMinutes() int {
	return DurationMinutes(w)
}

func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Extend returns w with End pushed back by d.
func (w Window) Extend(d time.Duration) Window {
	return Window{Start: w.Start, End: w.End.Add(d)}
}

func (w Window) In(loc *time.Location) Window {
	return Window{Start: w.Start.In(loc), End: w.End.In(loc)}
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s", w.Start.Format("2006-01-02 15:04"), w.End.Format("15:04"))
}
