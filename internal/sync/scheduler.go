package sync

import (
	"time"

	"github.com/MattLD13/tickerctl/internal/ticker"
)

// Poll tiers as multiples of the scheduler unit. One unit is a second in
// production; tests shrink it.
const (
	tierFast   = 1
	tierSports = 5
	tierStocks = 30
	tierSlow   = 600

	burstUnits  = 30
	deviceUnits = 30
)

// tierFor returns the polling multiplier for a display mode. Live scoreboards
// and the now-playing/flight surfaces change second to second; stocks and
// weather barely move.
func tierFor(mode string) int {
	switch mode {
	case ticker.ModeLive, ticker.ModeMusic, ticker.ModeFlights, ticker.ModeFlightTracker:
		return tierFast
	case ticker.ModeStocks:
		return tierStocks
	case ticker.ModeWeather, ticker.ModeClock:
		return tierSlow
	default:
		return tierSports
	}
}

// scheduler decides when the next state and device-roster fetches are due.
// It holds no clock of its own; callers pass now so the rules stay
// deterministic under test.
type scheduler struct {
	unit        time.Duration
	lastState   time.Time
	lastDevices time.Time
	burstUntil  time.Time
}

func newScheduler(unit time.Duration) scheduler {
	if unit <= 0 {
		unit = time.Second
	}
	return scheduler{unit: unit}
}

// stateInterval is the effective gap between state fetches for mode at now.
// An active burst window pins slower modes to the fast tier.
func (s *scheduler) stateInterval(mode string, now time.Time) time.Duration {
	tier := tierFor(mode)
	if now.Before(s.burstUntil) && tier > tierFast {
		tier = tierFast
	}
	return time.Duration(tier) * s.unit
}

func (s *scheduler) stateDue(mode string, now time.Time) bool {
	if s.lastState.IsZero() {
		return true
	}
	return now.Sub(s.lastState) >= s.stateInterval(mode, now)
}

func (s *scheduler) markState(now time.Time) {
	s.lastState = now
}

func (s *scheduler) devicesDue(now time.Time) bool {
	if s.lastDevices.IsZero() {
		return true
	}
	return now.Sub(s.lastDevices) >= time.Duration(deviceUnits)*s.unit
}

func (s *scheduler) markDevices(now time.Time) {
	s.lastDevices = now
}

// burst opens a fast-polling window after a local mode switch so the display
// is observed picking up the change promptly.
func (s *scheduler) burst(now time.Time) {
	s.burstUntil = now.Add(time.Duration(burstUnits) * s.unit)
}

func (s *scheduler) inBurst(now time.Time) bool {
	return now.Before(s.burstUntil)
}
