package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source used for wait deadlines. Tests substitute a
// clockwork.FakeClock.
type Clock = clockwork.Clock

type Config struct {
	// Offset shifts every reading of the system clock.
	Offset time.Duration
}

var DefaultConfig = Config{}

type offsetClock struct {
	clockwork.Clock
	offset time.Duration
}

func (c offsetClock) Now() time.Time {
	return c.Clock.Now().Add(c.offset)
}

func (c offsetClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func (c offsetClock) Until(t time.Time) time.Duration {
	return t.Sub(c.Now())
}

func Make(config ...Config) Clock {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	system := clockwork.NewRealClock()
	if cfg.Offset == 0 {
		return system
	}
	return offsetClock{Clock: system, offset: cfg.Offset}
}
