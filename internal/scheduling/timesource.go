package scheduling

import "time"

// TimeSource returns the current time; tests swap it for a fixed clock.
type TimeSource func() time.Time

func UTCNow() time.Time {
	return time.Now().UTC()
}
