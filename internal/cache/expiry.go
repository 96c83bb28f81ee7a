package cache

import (
	"fmt"
	"time"
)

const resetLayout = "15:04"

// UntilNextReset returns the time left until the next occurrence of resetAt
// ("HH:MM", interpreted in now's location). When now is at or past today's
// reset the next day's reset is used, so the result is always positive.
func UntilNextReset(now time.Time, resetAt string) (time.Duration, error) {
	at, err := time.Parse(resetLayout, resetAt)
	if err != nil {
		return 0, fmt.Errorf("parse reset time %q: %w", resetAt, err)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now), nil
}
