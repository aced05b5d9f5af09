// Package scheduling holds the pure lesson scheduling engine: interval math,
// conflict detection, classroom utilization, teacher availability and the
// substitution state machine. Every function works on a caller-supplied
// snapshot of sessions and keeps no state between calls.
package scheduling

import (
	"fmt"
	"time"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

// Clock is a wall-clock time of day in whole minutes after midnight.
type Clock int

// ParseClock accepts "15:04" or "15:04:05". Seconds must be zero; the
// second form exists because PostgreSQL TIME columns scan as "09:00:00".
func ParseClock(raw string) (Clock, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if t.Second() != 0 {
			return 0, fmt.Errorf("clock value %q must be on a whole minute", raw)
		}
		return Clock(t.Hour()*60 + t.Minute()), nil
	}
	return 0, fmt.Errorf("invalid clock value %q", raw)
}

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a half-open [Start, End) occupancy on one calendar date.
type Interval struct {
	Date  string
	Start Clock
	End   Clock
}

// NewInterval builds an interval on date from wall-clock bounds.
// The end must be strictly after the start on the same date.
func NewInterval(date time.Time, start, end string) (Interval, error) {
	if date.IsZero() {
		return Interval{}, appErrors.Clone(appErrors.ErrInvalidInterval, "date is required")
	}
	from, err := ParseClock(start)
	if err != nil {
		return Interval{}, appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, "invalid start time")
	}
	to, err := ParseClock(end)
	if err != nil {
		return Interval{}, appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, "invalid end time")
	}
	if to <= from {
		return Interval{}, appErrors.Clone(appErrors.ErrInvalidInterval, fmt.Sprintf("end time %s must be after start time %s", to, from))
	}
	return Interval{Date: date.Format(models.DateLayout), Start: from, End: to}, nil
}

// Minutes returns the length of the interval.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// Overlaps reports whether a and b share any instant. Intervals that only
// touch at a boundary do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Date == b.Date && a.Start < b.End && b.Start < a.End
}

// IntervalOf returns the interval occupied by a session.
func IntervalOf(session models.LessonSession) (Interval, error) {
	interval, err := NewInterval(session.SessionDate, session.StartTime, session.EndTime)
	if err != nil {
		appErr := appErrors.FromError(err)
		return Interval{}, appErrors.Clone(appErr, fmt.Sprintf("session %s: %s", session.ID, appErr.Message))
	}
	return interval, nil
}
