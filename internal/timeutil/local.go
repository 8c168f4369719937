package timeutil

import (
	"time"
)

// Local is the association's business time zone. Defaults to Asia/Manila.
var Local *time.Location

func init() {
	var err error
	Local, err = time.LoadLocation("Asia/Manila")
	if err != nil {
		// Fallback: fixed zone if tzdata is not available
		Local = time.FixedZone("PHT", 8*60*60) // UTC+8
	}
}

// SetLocation switches the business time zone (called once at start-up from config)
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Local = loc
	return nil
}

// Now returns the current time in the business time zone
func Now() time.Time {
	return time.Now().In(Local)
}

// ToLocal converts any time to the business time zone
func ToLocal(t time.Time) time.Time {
	return t.In(Local)
}

// ParseLocal parses a time string in the business time zone
func ParseLocal(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, Local)
}

// StartOfDay returns 00:00:00 of the given day
func StartOfDay(t time.Time) time.Time {
	l := t.In(Local)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, Local)
}

// BillingPeriod formats a time as a YYYY-MM billing period
func BillingPeriod(t time.Time) string {
	return t.In(Local).Format(PeriodLayout)
}

// PeriodDueDate returns the due date (day-of-month dueDay) of a YYYY-MM period.
// dueDay is clamped to the last day of the month.
func PeriodDueDate(period string, dueDay int) (time.Time, error) {
	start, err := time.ParseInLocation(PeriodLayout, period, Local)
	if err != nil {
		return time.Time{}, err
	}
	last := start.AddDate(0, 1, -1).Day()
	if dueDay < 1 {
		dueDay = 1
	}
	if dueDay > last {
		dueDay = last
	}
	return time.Date(start.Year(), start.Month(), dueDay, 23, 59, 59, 0, Local), nil
}

const (
	DateLayout     = "2006-01-02"
	PeriodLayout   = "2006-01"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
