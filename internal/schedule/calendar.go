// Package schedule holds the pure date arithmetic of the visit engine:
// range resolution for the scheduling views and recurrence stepping for
// the series builder. Everything here works in local calendar terms to
// avoid timezone-induced off-by-one shifts around midnight.
package schedule

import (
	"strings"
	"time"
)

// Range labels understood by ResolveRange. Dutch synonyms are accepted
// because the planning UI sends them in the user's language.
const (
	RangeToday    = "today"
	RangeTomorrow = "tomorrow"
	RangeWeek     = "this-week"
	RangeMonth    = "this-month"
	RangeDate     = "specific-date"
	RangeAll      = "all"
)

var rangeSynonyms = map[string]string{
	"vandaag":    RangeToday,
	"morgen":     RangeTomorrow,
	"deze-week":  RangeWeek,
	"week":       RangeWeek,
	"deze-maand": RangeMonth,
	"maand":      RangeMonth,
	"month":      RangeMonth,
	"datum":      RangeDate,
	"date":       RangeDate,
	"alles":      RangeAll,
}

// ResolveRange turns a range label into an inclusive [from, to] day pair.
// "this-week" spans Monday through Friday only; weekend work is not
// planned. An unknown label resolves to the current week, and
// "specific-date" without a usable explicit date falls back to today.
func ResolveRange(label string, explicit *time.Time, now time.Time) (time.Time, time.Time) {
	key := strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := rangeSynonyms[key]; ok {
		key = canonical
	}

	today := DateOnly(now)

	switch key {
	case RangeToday:
		return today, today
	case RangeTomorrow:
		day := today.AddDate(0, 0, 1)
		return day, day
	case RangeMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		last := first.AddDate(0, 1, -1)
		return first, last
	case RangeDate:
		if explicit != nil && !explicit.IsZero() {
			day := DateOnly(*explicit)
			return day, day
		}
		return today, today
	case RangeAll:
		from := time.Date(today.Year()-5, time.January, 1, 0, 0, 0, 0, today.Location())
		to := time.Date(today.Year()+5, time.December, 31, 0, 0, 0, 0, today.Location())
		return from, to
	default:
		return weekRange(today)
	}
}

// weekRange returns Monday through Friday of the week containing day.
// time.Weekday counts Sunday as 0, so a Sunday belongs to the week that
// ended the day before.
func weekRange(day time.Time) (time.Time, time.Time) {
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 4)
}

// ISOWeek returns the ISO-8601 week number of a date: the week holding
// the date's Thursday, with week 1 the week of the year's first Thursday.
func ISOWeek(date time.Time) int {
	_, week := date.ISOWeek()
	return week
}

// DateOnly truncates a time to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
