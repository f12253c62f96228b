package pipeline

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Selector decides whether a discovered event belongs to the target slate.
type Selector func(domain.ExternalEvent) bool

// AllEvents selects every event.
func AllEvents(domain.ExternalEvent) bool { return true }

// GameDays selects events whose start falls on one of the given calendar
// dates (YYYY-MM-DD) in loc. Events without a start time are not selected.
// An empty list selects everything.
func GameDays(dates []string, loc *time.Location) (Selector, error) {
	if len(dates) == 0 {
		return AllEvents, nil
	}
	days := make(map[string]bool, len(dates))
	for _, d := range dates {
		t, err := time.ParseInLocation(time.DateOnly, d, loc)
		if err != nil {
			return nil, fmt.Errorf("pipeline: game day %q: %w", d, domain.ErrInvalidInput)
		}
		days[t.Format(time.DateOnly)] = true
	}
	return func(ev domain.ExternalEvent) bool {
		if ev.StartTime.IsZero() {
			return false
		}
		return days[ev.StartTime.In(loc).Format(time.DateOnly)]
	}, nil
}
