package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

var validate = validator.New()

// CreateHabitInput is the data required to create a habit. Exactly one slot
// list must be populated, matching Frequency.
type CreateHabitInput struct {
	Name            string `validate:"required,max=255"`
	Description     string
	IsPermanent     bool
	Frequency       string `validate:"required,oneof=daily weekly monthly"`
	DurationMinutes int    `validate:"required,min=1,max=600"`

	DailyTimes   []model.TimeSlot    `validate:"omitempty,dive"`
	WeeklyTimes  []model.WeeklySlot  `validate:"omitempty,dive"`
	MonthlyTimes []model.MonthlySlot `validate:"omitempty,dive"`

	StartDate *time.Time
	EndDate   *time.Time
}

// UpdateHabitInput patches a habit; nil fields stay untouched.
type UpdateHabitInput struct {
	Name            *string `validate:"omitempty,min=1,max=255"`
	Description     *string
	DurationMinutes *int `validate:"omitempty,min=1,max=600"`
	IsActive        *bool

	DailyTimes   []model.TimeSlot    `validate:"omitempty,dive"`
	WeeklyTimes  []model.WeeklySlot  `validate:"omitempty,dive"`
	MonthlyTimes []model.MonthlySlot `validate:"omitempty,dive"`
}

// HabitService owns the habit lifecycle: create expands the recurrence rule
// into calendar events (all-or-nothing), update regenerates the future tail,
// delete cascades onto every occurrence.
type HabitService struct {
	db     *gorm.DB
	habits *repository.HabitRepository
	now    func() time.Time
}

func NewHabitService(db *gorm.DB, habits *repository.HabitRepository) *HabitService {
	return &HabitService{db: db, habits: habits, now: time.Now}
}

// Create validates the rule, persists the habit and materializes its
// occurrences in one transaction. Any scheduling conflict aborts the whole
// operation; nothing is left behind.
func (s *HabitService) Create(ctx context.Context, userID int64, input CreateHabitInput) (*model.Habit, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validateHabitRule(input); err != nil {
		return nil, err
	}

	existing, err := s.habits.FindActiveByName(ctx, userID, input.Name)
	if err != nil {
		return nil, fmt.Errorf("check habit name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: habit %q is already scheduled", ErrInvalidState, input.Name)
	}

	habit := &model.Habit{
		UserID:          userID,
		Name:            input.Name,
		Description:     input.Description,
		IsPermanent:     input.IsPermanent,
		Frequency:       input.Frequency,
		DurationMinutes: input.DurationMinutes,
		DailyTimes:      input.DailyTimes,
		WeeklyTimes:     input.WeeklyTimes,
		MonthlyTimes:    input.MonthlyTimes,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		IsActive:        true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewHabitRepository(tx).Create(ctx, habit); err != nil {
			return err
		}
		return s.materialize(ctx, tx, habit, nil)
	})
	if err != nil {
		return nil, err
	}
	return habit, nil
}

// Update patches the habit, deletes all future occurrences and regenerates
// them from the new rule. Past occurrences stay untouched. A conflict during
// regeneration rolls the whole update back.
func (s *HabitService) Update(ctx context.Context, userID int64, habitID uint, input UpdateHabitInput) (*model.Habit, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	habit, err := s.habits.FindByID(ctx, userID, habitID)
	if err != nil {
		return nil, asNotFound(err, "habit")
	}

	if input.Name != nil {
		habit.Name = *input.Name
	}
	if input.Description != nil {
		habit.Description = *input.Description
	}
	if input.DurationMinutes != nil {
		habit.DurationMinutes = *input.DurationMinutes
	}
	if input.IsActive != nil {
		habit.IsActive = *input.IsActive
	}
	if input.DailyTimes != nil {
		habit.DailyTimes = input.DailyTimes
	}
	if input.WeeklyTimes != nil {
		habit.WeeklyTimes = input.WeeklyTimes
	}
	if input.MonthlyTimes != nil {
		habit.MonthlyTimes = input.MonthlyTimes
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewHabitRepository(tx).Save(ctx, habit); err != nil {
			return err
		}
		if _, err := repository.NewCalendarRepository(tx).DeleteFutureByHabit(ctx, habit.ID, now); err != nil {
			return err
		}
		return s.materialize(ctx, tx, habit, &now)
	})
	if err != nil {
		return nil, err
	}
	return habit, nil
}

// Delete removes the habit and cascades onto all of its calendar events.
func (s *HabitService) Delete(ctx context.Context, userID int64, habitID uint) error {
	habit, err := s.habits.FindByID(ctx, userID, habitID)
	if err != nil {
		return asNotFound(err, "habit")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCalendarRepository(tx).DeleteByHabit(ctx, habit.ID); err != nil {
			return err
		}
		return repository.NewHabitRepository(tx).Delete(ctx, habit)
	})
}

func (s *HabitService) Get(ctx context.Context, userID int64, habitID uint) (*model.Habit, error) {
	habit, err := s.habits.FindByID(ctx, userID, habitID)
	if err != nil {
		return nil, asNotFound(err, "habit")
	}
	return habit, nil
}

func (s *HabitService) List(ctx context.Context, userID int64, filter repository.HabitFilter) ([]model.Habit, error) {
	return s.habits.List(ctx, userID, filter)
}

// materialize expands the habit over its schedule window and inserts one
// calendar event per occurrence. Every occurrence is conflict-checked against
// already-committed events before anything is inserted, so occurrences of the
// same habit never collide with each other and a conflict anywhere aborts
// without partial writes. skipBefore drops occurrences starting earlier than
// the cutoff (update flow: events before now were kept, not deleted).
func (s *HabitService) materialize(ctx context.Context, tx *gorm.DB, habit *model.Habit, skipBefore *time.Time) error {
	events := repository.NewCalendarRepository(tx)
	conflicts := NewConflictService(events)

	from, to := s.scheduleWindow(habit)
	rows := make([]model.CalendarEvent, 0)
	for _, occ := range expandHabit(habit, from, to) {
		if skipBefore != nil && occ.Start.Before(*skipBefore) {
			continue
		}
		result, err := conflicts.Check(ctx, habit.UserID, occ.Start, occ.End, nil)
		if err != nil {
			return err
		}
		if result.Conflicting {
			return fmt.Errorf("conflict on %s: %w",
				occ.Start.Format("2006-01-02"), &ConflictError{Events: result.Events})
		}
		habitID := habit.ID
		rows = append(rows, model.CalendarEvent{
			UserID:    habit.UserID,
			HabitID:   &habitID,
			EventType: model.EventHabit,
			StartTime: occ.Start,
			EndTime:   occ.End,
		})
	}
	return events.CreateBatch(ctx, rows)
}

// scheduleWindow is the date range to materialize: the frequency-dependent
// look-ahead horizon for permanent habits, the declared range for temporary
// ones.
func (s *HabitService) scheduleWindow(habit *model.Habit) (time.Time, time.Time) {
	if habit.IsPermanent {
		from := startOfDay(s.now())
		return from, from.AddDate(0, 0, lookaheadDays(habit.Frequency))
	}
	return *habit.StartDate, *habit.EndDate
}

// validateHabitRule enforces the frequency-specific invariants that struct
// tags cannot express.
func validateHabitRule(input CreateHabitInput) error {
	switch input.Frequency {
	case model.FrequencyDaily:
		if len(input.DailyTimes) == 0 {
			return fmt.Errorf("%w: daily habits require daily_times", ErrValidation)
		}
	case model.FrequencyWeekly:
		if len(input.WeeklyTimes) == 0 {
			return fmt.Errorf("%w: weekly habits require weekly_times", ErrValidation)
		}
	case model.FrequencyMonthly:
		if len(input.MonthlyTimes) == 0 {
			return fmt.Errorf("%w: monthly habits require monthly_times", ErrValidation)
		}
	}
	if !input.IsPermanent {
		if input.StartDate == nil || input.EndDate == nil {
			return fmt.Errorf("%w: temporary habits require start_date and end_date", ErrValidation)
		}
		if !input.EndDate.After(*input.StartDate) {
			return fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
		}
	}
	return nil
}

// asNotFound maps a gorm record miss onto the service taxonomy.
func asNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return err
}
