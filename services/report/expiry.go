package report

import (
	"time"

	"rigcheck/services/checklist"
)

// itemPass derives pass/fail for an equipment item: the checkbox must be set
// and, for date-bearing items, the expiry must not have lapsed.
func itemPass(item checklist.CheckItem, inspection time.Time) bool {
	if !item.Checked {
		return false
	}
	if item.Expiry.IsZero() {
		return true
	}
	return !expiredEndOfMonth(item.Expiry, inspection)
}

// expiredEndOfMonth treats an expiry month as valid through its last day.
// The info card uses the stricter first-of-month rule in MonthYear.ExpiredAt;
// the two rules are intentionally kept separate.
func expiredEndOfMonth(my checklist.MonthYear, inspection time.Time) bool {
	if my.IsZero() {
		return false
	}
	firstOfNext := time.Date(my.Year, time.Month(my.Month)+1, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(inspection.Year(), inspection.Month(), inspection.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(firstOfNext)
}
