// Package domain enumerates open time slots over free/busy data.
package domain

import (
	"time"
)

// FreeCode is the availability code meaning "free" in a free/busy view.
// Other codes (tentative, busy, out-of-office, working elsewhere) all block.
const FreeCode = '0'

// Slot is an open window satisfying every search constraint. Slots are
// ephemeral: generated per search, never persisted.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Duration returns the slot length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// FreeBusyView is one attendee's availability, encoded as a string of
// fixed-width per-interval codes starting at Origin. The encoding exposes no
// event details, only busy-state.
type FreeBusyView struct {
	Attendee string
	Origin   time.Time
	Interval time.Duration
	Codes    string
}

// IsFreeDuring reports whether every interval covered by [start, end) carries
// the free code. Instants outside the encoded window are treated as free: the
// feed is defined to cover the search window, so missing data means no known
// commitment rather than a block.
func (v FreeBusyView) IsFreeDuring(start, end time.Time) bool {
	if v.Interval <= 0 || len(v.Codes) == 0 || !start.Before(end) {
		return true
	}

	// Every interval index overlapped by [start, end) must be checked, even
	// when the range is not aligned to the interval grid.
	first := floorDiv(start.Sub(v.Origin), v.Interval)
	last := ceilDiv(end.Sub(v.Origin), v.Interval)
	if first < 0 {
		first = 0
	}
	if last > len(v.Codes) {
		last = len(v.Codes)
	}
	for i := first; i < last; i++ {
		if v.Codes[i] != FreeCode {
			return false
		}
	}
	return true
}

func floorDiv(d, step time.Duration) int {
	q := d / step
	if d%step != 0 && (d < 0) != (step < 0) {
		q--
	}
	return int(q)
}

func ceilDiv(d, step time.Duration) int {
	q := d / step
	if d%step != 0 && (d < 0) == (step < 0) {
		q++
	}
	return int(q)
}
