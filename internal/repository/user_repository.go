package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user with a fresh random 15-digit ID.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	db := r.db.WithContext(ctx)
	if user.ID == 0 {
		id, err := r.uniqueID(ctx)
		if err != nil {
			return err
		}
		user.ID = id
	}
	if err := db.Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// uniqueID draws random 15-digit IDs until one is unused.
func (r *UserRepository) uniqueID(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	for {
		id := 100_000_000_000_000 + rand.Int63n(900_000_000_000_000)
		var count int64
		if err := db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("check user id: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Cup columns incremented by challenge settlement.
const (
	CupGold   = "gold_cups"
	CupSilver = "silver_cups"
	CupBronze = "bronze_cups"
)

// AddCup atomically increments one of the cup counters.
func (r *UserRepository) AddCup(ctx context.Context, userID int64, column string) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return fmt.Errorf("add cup: %w", err)
	}
	return nil
}

// IncrementChallengesCount bumps the lifetime completed-challenge counter.
func (r *UserRepository) IncrementChallengesCount(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("challenges_count", gorm.Expr("challenges_count + 1")).Error
	if err != nil {
		return fmt.Errorf("increment challenges count: %w", err)
	}
	return nil
}

// ListExpiredPremium returns premium users whose subscription lapsed before now.
func (r *UserRepository) ListExpiredPremium(ctx context.Context, now time.Time) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("is_premium = ? AND premium_expires_at IS NOT NULL AND premium_expires_at < ?", true, now).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
