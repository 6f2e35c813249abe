package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
)

// FriendshipRepository handles the friend-request graph.
type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) Create(ctx context.Context, friendship *model.Friendship) error {
	if err := r.db.WithContext(ctx).Create(friendship).Error; err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}
	return nil
}

func (r *FriendshipRepository) FindByID(ctx context.Context, friendshipID uint) (*model.Friendship, error) {
	var friendship model.Friendship
	if err := r.db.WithContext(ctx).Where("id = ?", friendshipID).First(&friendship).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

// FindBetween returns any friendship row linking the two users in either
// direction, or nil.
func (r *FriendshipRepository) FindBetween(ctx context.Context, userID, friendID int64) (*model.Friendship, error) {
	var friendship model.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		First(&friendship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &friendship, nil
}

// ListFriendIDs returns the ids of everyone with an accepted friendship to
// the user, from both directions.
func (r *FriendshipRepository) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	var friendships []model.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, model.FriendshipAccepted).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(friendships))
	for _, f := range friendships {
		if f.UserID == userID {
			ids = append(ids, f.FriendID)
		} else {
			ids = append(ids, f.UserID)
		}
	}
	return ids, nil
}

// ListIncoming returns pending requests addressed to the user.
func (r *FriendshipRepository) ListIncoming(ctx context.Context, userID int64) ([]model.Friendship, error) {
	var friendships []model.Friendship
	err := r.db.WithContext(ctx).
		Where("friend_id = ? AND status = ?", userID, model.FriendshipPending).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	return friendships, nil
}

// ListSent returns pending requests the user sent.
func (r *FriendshipRepository) ListSent(ctx context.Context, userID int64) ([]model.Friendship, error) {
	var friendships []model.Friendship
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.FriendshipPending).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	return friendships, nil
}

func (r *FriendshipRepository) Save(ctx context.Context, friendship *model.Friendship) error {
	if err := r.db.WithContext(ctx).Save(friendship).Error; err != nil {
		return fmt.Errorf("save friendship: %w", err)
	}
	return nil
}

// DeleteAccepted removes an accepted friendship in either direction.
func (r *FriendshipRepository) DeleteAccepted(ctx context.Context, userID, friendID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND status = ?",
			userID, friendID, friendID, userID, model.FriendshipAccepted).
		Delete(&model.Friendship{})
	if result.Error != nil {
		return false, fmt.Errorf("delete friendship: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
