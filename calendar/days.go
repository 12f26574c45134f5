package calendar

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRange = errors.New("invalid date range")

// Day is a calendar day without a time component
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func FromDate(t time.Time) Day {
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Day) Date() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Day) Weekday() time.Weekday {
	return d.Date().Weekday()
}

func (d Day) IsWorkingDay() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsFirstWorkingDayOfMonth is true for the 1st when it is a weekday, otherwise
// for the monday following a weekend start of the month (2nd or 3rd).
func (d Day) IsFirstWorkingDayOfMonth() bool {
	if !d.IsWorkingDay() {
		return false
	}
	if d.Day == 1 {
		return true
	}
	if d.Day > 3 {
		return false
	}
	return d.Weekday() == time.Monday
}

func (d Day) String() string {
	return d.Date().Format(time.DateOnly)
}

// DateRange returns start and the following n-1 days
func DateRange(start time.Time, numberOfDays int) ([]Day, error) {
	if numberOfDays < 0 {
		return nil, fmt.Errorf("%w: number of days must be non negative, got %d", ErrInvalidRange, numberOfDays)
	}

	days := make([]Day, numberOfDays)
	for i := range numberOfDays {
		days[i] = FromDate(start.AddDate(0, 0, i))
	}

	return days, nil
}
