package service

import (
	"context"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// shortEventMinutes is the short-event exemption bound: events of 1-10
// minutes never block and are never blocked, so quick items can be layered
// anywhere on the calendar.
const shortEventMinutes = 10

// ConflictResult is the outcome of a conflict query.
type ConflictResult struct {
	Conflicting bool
	Events      []ConflictingEvent
}

// ConflictService decides whether a proposed time window collides with the
// user's existing calendar. Pure read; callers turn a non-empty result into
// a rejection.
type ConflictService struct {
	events *repository.CalendarRepository
}

func NewConflictService(events *repository.CalendarRepository) *ConflictService {
	return &ConflictService{events: events}
}

// Check reports the conflicts for [start, end]. excludeEventID skips one
// event, used when rescheduling it in place. Boundaries count as overlap:
// an event ending exactly at start (or starting exactly at end) conflicts.
func (s *ConflictService) Check(ctx context.Context, userID int64, start, end time.Time, excludeEventID *uint) (ConflictResult, error) {
	if isShortEvent(start, end) {
		return ConflictResult{}, nil
	}

	candidates, err := s.events.FindOverlapping(ctx, userID, start, end, excludeEventID)
	if err != nil {
		return ConflictResult{}, err
	}

	var conflicts []ConflictingEvent
	for _, event := range candidates {
		// Short existing events never block either.
		if event.Duration().Minutes() <= shortEventMinutes {
			continue
		}
		conflicts = append(conflicts, ConflictingEvent{
			Label: event.Label(),
			Start: event.StartTime,
			End:   event.EndTime,
		})
	}

	return ConflictResult{Conflicting: len(conflicts) > 0, Events: conflicts}, nil
}

func isShortEvent(start, end time.Time) bool {
	minutes := end.Sub(start).Minutes()
	return minutes >= 1 && minutes <= shortEventMinutes
}
