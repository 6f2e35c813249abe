package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// CalendarService owns the per-user event collection: scheduling tasks into
// slots, moving single occurrences around and range queries. All writes go
// through the conflict resolver.
type CalendarService struct {
	events    *repository.CalendarRepository
	tasks     *repository.TaskRepository
	conflicts *ConflictService
	now       func() time.Time
}

func NewCalendarService(events *repository.CalendarRepository, tasks *repository.TaskRepository, conflicts *ConflictService) *CalendarService {
	return &CalendarService{events: events, tasks: tasks, conflicts: conflicts, now: time.Now}
}

// ScheduleTask books a task onto the calendar. The slot length comes from
// the task's estimate; a task can hold at most one slot.
func (s *CalendarService) ScheduleTask(ctx context.Context, userID int64, taskID uint, start time.Time) (*model.CalendarEvent, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, asNotFound(err, "task")
	}

	existing, err := s.events.FindByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: task is already scheduled", ErrInvalidState)
	}

	hours := task.EstimatedHours
	if hours <= 0 {
		hours = 1
	}
	end := start.Add(time.Duration(hours * float64(time.Hour)))

	if err := s.validateWindow(ctx, userID, start, end, nil); err != nil {
		return nil, err
	}

	event := &model.CalendarEvent{
		UserID:    userID,
		TaskID:    &task.ID,
		EventType: model.EventTask,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// RescheduleEvent moves a single event to a new start. The duration is taken
// from the owning habit or task; the event itself is excluded from the
// conflict check. For habit events only this occurrence moves, never the
// habit's rule.
func (s *CalendarService) RescheduleEvent(ctx context.Context, userID int64, eventID uint, start time.Time) (*model.CalendarEvent, error) {
	event, err := s.events.FindByID(ctx, userID, eventID)
	if err != nil {
		return nil, asNotFound(err, "event")
	}

	var duration time.Duration
	switch {
	case event.EventType == model.EventHabit && event.Habit != nil:
		duration = time.Duration(event.Habit.DurationMinutes) * time.Minute
	case event.EventType == model.EventTask && event.Task != nil:
		hours := event.Task.EstimatedHours
		if hours <= 0 {
			hours = 1
		}
		duration = time.Duration(hours * float64(time.Hour))
	default:
		duration = event.Duration()
	}
	end := start.Add(duration)

	if err := s.validateWindow(ctx, userID, start, end, &event.ID); err != nil {
		return nil, err
	}

	event.StartTime = start
	event.EndTime = end
	if err := s.events.Save(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Unschedule removes one event. For habit events only that occurrence goes;
// the habit keeps its rule and its other occurrences.
func (s *CalendarService) Unschedule(ctx context.Context, userID int64, eventID uint) error {
	if _, err := s.events.FindByID(ctx, userID, eventID); err != nil {
		return asNotFound(err, "event")
	}
	return s.events.Delete(ctx, userID, eventID)
}

// ListEvents returns the user's events in [from, to], both bounds optional.
func (s *CalendarService) ListEvents(ctx context.Context, userID int64, from, to *time.Time) ([]model.CalendarEvent, error) {
	return s.events.ListRange(ctx, userID, from, to)
}

// Upcoming returns the next seven days of events.
func (s *CalendarService) Upcoming(ctx context.Context, userID int64) ([]model.CalendarEvent, error) {
	now := s.now()
	to := now.AddDate(0, 0, 7)
	return s.events.ListRange(ctx, userID, &now, &to)
}

// ScheduledTaskIDs returns the ids of tasks that currently hold a slot.
func (s *CalendarService) ScheduledTaskIDs(ctx context.Context, userID int64) ([]uint, error) {
	return s.events.ListTaskEventIDs(ctx, userID)
}

// Availability checks a prospective window without writing anything.
func (s *CalendarService) Availability(ctx context.Context, userID int64, start time.Time, durationHours float64) (ConflictResult, error) {
	end := start.Add(time.Duration(durationHours * float64(time.Hour)))
	return s.conflicts.Check(ctx, userID, start, end, nil)
}

// validateWindow rejects past starts and conflicting slots.
func (s *CalendarService) validateWindow(ctx context.Context, userID int64, start, end time.Time, excludeEventID *uint) error {
	if start.Before(s.now()) {
		return fmt.Errorf("%w: cannot schedule in the past", ErrValidation)
	}
	result, err := s.conflicts.Check(ctx, userID, start, end, excludeEventID)
	if err != nil {
		return err
	}
	if result.Conflicting {
		return &ConflictError{Events: result.Events}
	}
	return nil
}
