package services

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock is the time source for expiry decisions.
type Clock func() time.Time

func NewClock() Clock {
	return time.Now
}

// NewEventID returns a time-ordered, lexicographically sortable id.
func NewEventID() string {
	return ulid.Make().String()
}
