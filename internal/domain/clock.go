package domain

import "time"

// Clock supplies the current time. Injected so slot resolution is testable.
type Clock interface {
	Now() time.Time
}

// TZClock is a Clock pinned to a fixed IANA time zone.
type TZClock struct {
	loc *time.Location
}

// NewTZClock builds a clock for the given zone name (e.g. "Asia/Almaty").
func NewTZClock(name string) (*TZClock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return &TZClock{loc: loc}, nil
}

func (c *TZClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the zone the clock reports times in.
func (c *TZClock) Location() *time.Location {
	return c.loc
}
