package service

import (
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
)

// occurrence is one concrete dated instance of a habit rule.
type occurrence struct {
	Start time.Time
	End   time.Time
}

// lookaheadDays is the materialization horizon per frequency: sparser rules
// get a longer runway so the calendar never looks empty.
func lookaheadDays(frequency string) int {
	switch frequency {
	case model.FrequencyWeekly:
		return 365
	case model.FrequencyMonthly:
		return 1095
	default:
		return 90
	}
}

// expandHabit walks every date in [from, to] (inclusive) and emits the
// occurrences the habit's rule produces there. Pure; same inputs, same
// output.
func expandHabit(habit *model.Habit, from, to time.Time) []occurrence {
	var out []occurrence
	for day := startOfDay(from); !day.After(to); day = day.AddDate(0, 0, 1) {
		switch habit.Frequency {
		case model.FrequencyDaily:
			for _, slot := range habit.DailyTimes {
				out = append(out, habitOccurrence(habit, day, slot.Hour, slot.Minute))
			}
		case model.FrequencyWeekly:
			for _, slot := range habit.WeeklyTimes {
				if !matchesWeekday(day, slot.Day) {
					continue
				}
				out = append(out, habitOccurrence(habit, day, slot.Hour, slot.Minute))
			}
		case model.FrequencyMonthly:
			for _, slot := range habit.MonthlyTimes {
				// No clamping: a day=31 rule never fires in shorter months.
				if day.Day() != slot.Day {
					continue
				}
				out = append(out, habitOccurrence(habit, day, slot.Hour, slot.Minute))
			}
		}
	}
	return out
}

func habitOccurrence(habit *model.Habit, day time.Time, hour, minute int) occurrence {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	return occurrence{
		Start: start,
		End:   start.Add(time.Duration(habit.DurationMinutes) * time.Minute),
	}
}

// matchesWeekday maps the client's slot-day convention onto a Monday=0
// weekday index via the (day-1) mod 7 shift. Kept exactly as the mobile
// clients expect it; do not normalize without a product decision.
func matchesWeekday(day time.Time, slotDay int) bool {
	weekday := (int(day.Weekday()) + 6) % 7
	return weekday == ((slotDay-1)%7+7)%7
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
