package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// Notifier delivers a short out-of-band message to a user's chat. Delivery
// mechanics live in the notify package; services only depend on this.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// FriendService manages the friend-request graph feeding challenge
// invitations.
type FriendService struct {
	friendships *repository.FriendshipRepository
	users       *repository.UserRepository
	notifier    Notifier
}

func NewFriendService(friendships *repository.FriendshipRepository, users *repository.UserRepository, notifier Notifier) *FriendService {
	return &FriendService{friendships: friendships, users: users, notifier: notifier}
}

// SendRequest creates a pending request. A row in either direction, whatever
// its status, blocks a new one.
func (s *FriendService) SendRequest(ctx context.Context, userID, friendID int64) (*model.Friendship, error) {
	if userID == friendID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", ErrValidation)
	}
	if _, err := s.users.FindByID(ctx, friendID); err != nil {
		return nil, asNotFound(err, "user")
	}

	existing, err := s.friendships.FindBetween(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: friend request already exists", ErrInvalidState)
	}

	friendship := &model.Friendship{
		UserID:   userID,
		FriendID: friendID,
		Status:   model.FriendshipPending,
	}
	if err := s.friendships.Create(ctx, friendship); err != nil {
		return nil, err
	}

	s.notifyRequest(ctx, userID, friendID)
	return friendship, nil
}

// notifyRequest pings the recipient; delivery failures only get logged.
func (s *FriendService) notifyRequest(ctx context.Context, senderID, friendID int64) {
	if s.notifier == nil {
		return
	}
	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return
	}
	friend, err := s.users.FindByID(ctx, friendID)
	if err != nil || friend.ChatID == 0 {
		return
	}
	text := fmt.Sprintf("%s sent you a friend request", sender.Name)
	if err := s.notifier.Send(ctx, friend.ChatID, text); err != nil {
		log.Printf("friend request notification to user %d: %v", friendID, err)
	}
}

// Accept resolves a pending request addressed to userID.
func (s *FriendService) Accept(ctx context.Context, userID int64, friendshipID uint) (*model.Friendship, error) {
	return s.respond(ctx, userID, friendshipID, model.FriendshipAccepted)
}

// Reject resolves a pending request addressed to userID.
func (s *FriendService) Reject(ctx context.Context, userID int64, friendshipID uint) (*model.Friendship, error) {
	return s.respond(ctx, userID, friendshipID, model.FriendshipRejected)
}

func (s *FriendService) respond(ctx context.Context, userID int64, friendshipID uint, status string) (*model.Friendship, error) {
	friendship, err := s.friendships.FindByID(ctx, friendshipID)
	if err != nil {
		return nil, asNotFound(err, "friend request")
	}
	if friendship.FriendID != userID {
		return nil, fmt.Errorf("friend request: %w", ErrNotFound)
	}
	if friendship.Status != model.FriendshipPending {
		return nil, fmt.Errorf("%w: request already resolved", ErrInvalidState)
	}

	friendship.Status = status
	if err := s.friendships.Save(ctx, friendship); err != nil {
		return nil, err
	}
	return friendship, nil
}

// Friends returns the user's accepted friends from both directions.
func (s *FriendService) Friends(ctx context.Context, userID int64) ([]model.User, error) {
	ids, err := s.friendships.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends := make([]model.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			continue
		}
		friends = append(friends, *user)
	}
	return friends, nil
}

// IncomingRequests lists pending requests addressed to the user.
func (s *FriendService) IncomingRequests(ctx context.Context, userID int64) ([]model.Friendship, error) {
	return s.friendships.ListIncoming(ctx, userID)
}

// SentRequests lists pending requests the user sent.
func (s *FriendService) SentRequests(ctx context.Context, userID int64) ([]model.Friendship, error) {
	return s.friendships.ListSent(ctx, userID)
}

// Remove dissolves an accepted friendship.
func (s *FriendService) Remove(ctx context.Context, userID, friendID int64) error {
	removed, err := s.friendships.DeleteAccepted(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("friendship: %w", ErrNotFound)
	}
	return nil
}
