package schedule

import (
	"time"

	"github.com/fieldwise/visits-service/internal/model"
)

// NextOccurrence computes the next visit date after last for the given
// frequency. A nil last means the series has no history yet and the
// step is taken from now. Month and year steps use calendar arithmetic,
// so month-end inputs normalize forward (Jan 31 + 1 month lands in
// early March); the week-based frequencies are plain day offsets.
func NextOccurrence(last *time.Time, freq model.Frequency, now time.Time) time.Time {
	base := DateOnly(now)
	if last != nil && !last.IsZero() {
		base = DateOnly(*last)
	}

	switch freq {
	case model.FreqThreeWeeks:
		return base.AddDate(0, 0, 21)
	case model.FreqFourWeeks:
		return base.AddDate(0, 0, 28)
	case model.FreqSixWeeks:
		return base.AddDate(0, 0, 42)
	case model.FreqEightWeeks:
		return base.AddDate(0, 0, 56)
	case model.FreqTwelveWeeks:
		return base.AddDate(0, 0, 84)
	case model.FreqThriceYearly:
		return base.AddDate(0, 4, 0)
	case model.FreqYearly:
		return base.AddDate(1, 0, 0)
	default:
		// monthly, and the fallback for anything unrecognized
		return base.AddDate(0, 1, 0)
	}
}
