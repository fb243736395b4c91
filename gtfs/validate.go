package gtfs

import (
	"fmt"
	"time"
)

const gtfsDateLayout = "20060102"

// ExpiredDatasetError reports a static dataset whose last service day is in the past.
type ExpiredDatasetError struct {
	Expired time.Time
	Now     time.Time
}

func (e *ExpiredDatasetError) Error() string {
	return fmt.Sprintf("static dataset expired %s, currently %s",
		e.Expired.Format(time.DateOnly), e.Now.Format(time.DateOnly))
}

// LastServiceDate returns the latest day covered by a calendar end date or an
// added calendar date. ok is false when the dataset has no dated service.
func LastServiceDate(idx *Index) (last time.Time, ok bool) {
	consider := func(s string) {
		d, err := time.Parse(gtfsDateLayout, s)
		if err != nil {
			return
		}
		if !ok || d.After(last) {
			last, ok = d, true
		}
	}
	for _, c := range idx.Calendars {
		consider(c.EndDate)
	}
	for _, cd := range idx.CalendarDates {
		if cd.ExceptionType == ServiceAdded {
			consider(cd.Date)
		}
	}
	return last, ok
}

// ValidateCalendar fails with *ExpiredDatasetError when every service period
// of idx ended before the calendar day of now. Datasets without dated service
// pass.
func ValidateCalendar(idx *Index, now time.Time) error {
	last, ok := LastServiceDate(idx)
	if !ok {
		return nil
	}
	today, _ := time.Parse(gtfsDateLayout, now.Format(gtfsDateLayout))
	if last.Before(today) {
		return &ExpiredDatasetError{Expired: last, Now: now}
	}
	return nil
}
