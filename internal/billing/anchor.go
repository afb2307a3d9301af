package billing

import "time"

// MonthlyAnchor returns the due-date anchor for a reference date: the first
// calendar day of the reference date's month at start of day, always in UTC.
// The anchor keys fee records and the unique index in storage, so any two
// dates in the same month must resolve to the same instant regardless of the
// location they were parsed in.
//
// Agreements carry a MonthlyDueDay, but the anchor is currently always day 1
// of the month regardless of that field, matching the source system.
func MonthlyAnchor(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// Each date counts in its own location, so the result is unaffected by time
// zone offsets or DST transitions. Negative spans clamp to zero.
func DaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int(toDay.Sub(fromDay).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// DaysOverdue returns how many whole days the reference date is past its
// monthly anchor. On the anchor day itself the result is 0; each full day
// afterward adds exactly 1.
func DaysOverdue(ref time.Time) int {
	return DaysBetween(MonthlyAnchor(ref), ref)
}
