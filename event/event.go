// Package event builds holiday-week indicator regressors. Imported dengue
// cases cluster around the year-end travel season, so the exogenous harmonic
// candidate gets a dummy column marking those weeks.
package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/aa"
)

var (
	ErrStartAfterEnd = errors.New("event start time is after end time")
	ErrUnsetTime     = errors.New("unset event start or end time")
	ErrNoEventName   = errors.New("no event name")
)

// Event is a closed time span to flag in the regressor.
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Holiday expands a holiday definition into one event per year in [start,
// end], padded by the surrounding travel window.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	events := []Event{}
	for year := start.Year(); year <= end.Year(); year++ {
		_, observed := hol.Calc(year)
		observed = time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, start.Location())

		if observed.Before(start) || observed.After(end) {
			continue
		}
		events = append(events, Event{
			Name:  strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, year), " ", "_"),
			Start: observed.Add(-durBefore),
			End:   observed.Add(24 * time.Hour).Add(durAfter),
		})
	}
	return events
}

// YearEndTravel returns the Christmas and New Year travel windows, two weeks
// either side, for every year in range.
func YearEndTravel(start, end time.Time) []Event {
	pad := 14 * 24 * time.Hour
	events := Holiday(aa.ChristmasDay, start, end, pad, pad)
	events = append(events, Holiday(aa.NewYear, start, end, pad, pad)...)
	return events
}

// WeeklyDummy maps events onto the weekly grid: 1 when the week ending at a
// grid date overlaps any event span, 0 otherwise.
func WeeklyDummy(events []Event, grid []time.Time) []float64 {
	dummy := make([]float64, len(grid))
	for i, wk := range grid {
		weekStart := wk.AddDate(0, 0, -6)
		for _, e := range events {
			if e.Start.After(wk) || e.End.Before(weekStart) {
				continue
			}
			dummy[i] = 1
			break
		}
	}
	return dummy
}
