package report

import "time"

const (
	DefaultDays = 28
	dateLayout  = "2006-01-02"
)

// Resolve passes start and end through when both are given. Otherwise it
// returns the trailing window of days calendar days ending on now's date,
// even if one bound was supplied.
func Resolve(start, end string, days int, now time.Time) DateRange {
	if start != "" && end != "" {
		return DateRange{StartDate: start, EndDate: end}
	}
	if days < 1 {
		days = 1
	}
	from := now.AddDate(0, 0, -(days - 1))
	return DateRange{
		StartDate: from.Format(dateLayout),
		EndDate:   now.Format(dateLayout),
	}
}
