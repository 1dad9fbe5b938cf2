package core

import "time"

// MonthMetrics returns the layout parameters for a 7-column month grid:
// the number of days in the month and the weekday of day 1 (0=Sunday ..
// 6=Saturday), which is the count of leading blank cells.
//
// The day count is computed as "day 0 of the following month", so
// out-of-range months roll over the same way calendar dates do
// (month 13 is January of year+1). Pure function, no error conditions.
func MonthMetrics(year int, month time.Month) (daysInMonth, firstWeekday int) {
	daysInMonth = time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	firstWeekday = int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
	return daysInMonth, firstWeekday
}

// PrevMonth and NextMonth step a (year, month) pair with year rollover.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

func NextMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
