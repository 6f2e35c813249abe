package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
)

// HabitRepository handles CRUD for habits.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Create(habit).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) FindByID(ctx context.Context, userID int64, habitID uint) (*model.Habit, error) {
	var habit model.Habit
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, habitID).First(&habit).Error; err != nil {
		return nil, err
	}
	return &habit, nil
}

// FindActiveByName returns the user's active habit with this name, or nil.
// Used to reject duplicate scheduling.
func (r *HabitRepository) FindActiveByName(ctx context.Context, userID int64, name string) (*model.Habit, error) {
	var habit model.Habit
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND is_active = ?", userID, name, true).
		First(&habit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

// HabitFilter narrows List results; nil fields are ignored.
type HabitFilter struct {
	IsPermanent *bool
	Frequency   string
	IsActive    *bool
}

func (r *HabitRepository) List(ctx context.Context, userID int64, filter HabitFilter) ([]model.Habit, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.IsPermanent != nil {
		query = query.Where("is_permanent = ?", *filter.IsPermanent)
	}
	if filter.Frequency != "" {
		query = query.Where("frequency = ?", filter.Frequency)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	var habits []model.Habit
	if err := query.Order("created_at DESC").Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

// ListActivePermanent returns every habit the rolling maintainer must keep
// extended.
func (r *HabitRepository) ListActivePermanent(ctx context.Context) ([]model.Habit, error) {
	var habits []model.Habit
	err := r.db.WithContext(ctx).
		Where("is_permanent = ? AND is_active = ?", true, true).
		Find(&habits).Error
	if err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *HabitRepository) Save(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Save(habit).Error; err != nil {
		return fmt.Errorf("save habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) Delete(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Delete(habit).Error; err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}
