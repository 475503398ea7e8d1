package domain

import "time"

// Countdown is a calendar-aware breakdown of the time left until a target.
type Countdown struct {
	Months  int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// CountdownUntil splits target-now into whole calendar months followed by the
// days, hours, minutes and seconds that remain. Past targets yield zero.
func CountdownUntil(now, target time.Time) Countdown {
	now = now.UTC().Truncate(time.Second)
	target = target.UTC()
	if !now.Before(target) {
		return Countdown{}
	}

	months := (target.Year()-now.Year())*12 + int(target.Month()) - int(now.Month())
	for months > 0 && addMonths(now, months).After(target) {
		months--
	}
	rest := target.Sub(addMonths(now, months))

	return Countdown{
		Months:  months,
		Days:    int(rest / (24 * time.Hour)),
		Hours:   int(rest % (24 * time.Hour) / time.Hour),
		Minutes: int(rest % time.Hour / time.Minute),
		Seconds: int(rest % time.Minute / time.Second),
	}
}

// addMonths moves t by n calendar months, clamping the day to the end of the
// target month instead of overflowing into the next one.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	first = first.AddDate(0, n, 0)
	day := min(t.Day(), daysIn(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
