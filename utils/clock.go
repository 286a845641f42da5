package utils

import (
	"sync/atomic"
	"time"
)

var location atomic.Pointer[time.Location]

// SetLocation sets the zone whose calendar decides "today" for log dates and stats.
func SetLocation(loc *time.Location) {
	if loc != nil {
		location.Store(loc)
	}
}

// Location returns the zone set by SetLocation, UTC by default.
func Location() *time.Location {
	if loc := location.Load(); loc != nil {
		return loc
	}
	return time.UTC
}

// Now is the current time in Location.
func Now() time.Time {
	return time.Now().In(Location())
}
