package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
)

// CalendarRepository handles calendar event rows for both task and habit
// events.
type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) Create(ctx context.Context, event *model.CalendarEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// CreateBatch inserts a set of events in one statement.
func (r *CalendarRepository) CreateBatch(ctx context.Context, events []model.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&events).Error; err != nil {
		return fmt.Errorf("create events: %w", err)
	}
	return nil
}

func (r *CalendarRepository) FindByID(ctx context.Context, userID int64, eventID uint) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	err := r.db.WithContext(ctx).Preload("Task").Preload("Habit").
		Where("user_id = ? AND id = ?", userID, eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FindOverlapping returns the user's events whose window touches or overlaps
// [start, end], boundaries inclusive. Three shapes: the new window starts
// inside an existing event, ends inside one, or fully contains one.
func (r *CalendarRepository) FindOverlapping(ctx context.Context, userID int64, start, end time.Time, excludeEventID *uint) ([]model.CalendarEvent, error) {
	query := r.db.WithContext(ctx).Preload("Task").Preload("Habit").
		Where("user_id = ?", userID).
		Where(
			r.db.Where("start_time <= ? AND end_time >= ?", start, start).
				Or("start_time <= ? AND end_time >= ?", end, end).
				Or("start_time >= ? AND end_time <= ?", start, end),
		)
	if excludeEventID != nil {
		query = query.Where("id <> ?", *excludeEventID)
	}
	var events []model.CalendarEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindByTask returns the event a task is scheduled into, or nil.
func (r *CalendarRepository) FindByTask(ctx context.Context, taskID uint) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *CalendarRepository) ListRange(ctx context.Context, userID int64, from, to *time.Time) ([]model.CalendarEvent, error) {
	query := r.db.WithContext(ctx).Preload("Task").Preload("Habit").
		Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("start_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("end_time <= ?", *to)
	}
	var events []model.CalendarEvent
	if err := query.Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListTaskEventIDs returns the task ids that currently have a calendar slot.
func (r *CalendarRepository) ListTaskEventIDs(ctx context.Context, userID int64) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.CalendarEvent{}).
		Where("user_id = ? AND event_type = ? AND task_id IS NOT NULL", userID, model.EventTask).
		Pluck("task_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LatestByHabit returns the habit's most recent occurrence, or nil.
func (r *CalendarRepository) LatestByHabit(ctx context.Context, habitID uint) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	err := r.db.WithContext(ctx).Where("habit_id = ?", habitID).
		Order("start_time DESC").First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ExistsAt reports whether the habit already has an occurrence at exactly
// this start time. Dedup check for the rolling maintainer.
func (r *CalendarRepository) ExistsAt(ctx context.Context, habitID uint, start time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CalendarEvent{}).
		Where("habit_id = ? AND start_time = ?", habitID, start).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteFutureByHabit removes the habit's occurrences starting at or after
// the cutoff. Past occurrences stay untouched.
func (r *CalendarRepository) DeleteFutureByHabit(ctx context.Context, habitID uint, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("habit_id = ? AND start_time >= ?", habitID, cutoff).
		Delete(&model.CalendarEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete future habit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByHabit removes every occurrence of the habit.
func (r *CalendarRepository) DeleteByHabit(ctx context.Context, habitID uint) error {
	if err := r.db.WithContext(ctx).Where("habit_id = ?", habitID).
		Delete(&model.CalendarEvent{}).Error; err != nil {
		return fmt.Errorf("delete habit events: %w", err)
	}
	return nil
}

// DeleteHabitEventsBefore trims habit occurrences that already passed.
func (r *CalendarRepository) DeleteHabitEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("event_type = ? AND start_time < ?", model.EventHabit, cutoff).
		Delete(&model.CalendarEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup habit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *CalendarRepository) Save(ctx context.Context, event *model.CalendarEvent) error {
	if err := r.db.WithContext(ctx).Save(event).Error; err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (r *CalendarRepository) Delete(ctx context.Context, userID int64, eventID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, eventID).
		Delete(&model.CalendarEvent{}).Error; err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// FindUpcomingUnnotified returns events starting inside [from, to] that have
// not had a reminder sent yet, across all users.
func (r *CalendarRepository) FindUpcomingUnnotified(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.db.WithContext(ctx).Preload("Task").Preload("Habit").
		Where("start_time >= ? AND start_time <= ? AND notification_sent = ?", from, to, false).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// MarkNotified flags an event so the reminder sweep skips it next tick.
func (r *CalendarRepository) MarkNotified(ctx context.Context, eventID uint) error {
	err := r.db.WithContext(ctx).Model(&model.CalendarEvent{}).
		Where("id = ?", eventID).Update("notification_sent", true).Error
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}
