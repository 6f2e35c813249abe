package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
)

// ChallengeRepository handles the challenge tree: challenge, participants,
// quiz, questions and options.
type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create persists the challenge together with its nested quiz and
// participants in one transaction (gorm association create).
func (r *ChallengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	if err := r.db.WithContext(ctx).Create(challenge).Error; err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) FindByID(ctx context.Context, challengeID uint) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Quiz").
		Preload("Quiz.Questions").
		Preload("Quiz.Questions.Options").
		Where("id = ?", challengeID).First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// ListForUser returns challenges the user created or participates in.
func (r *ChallengeRepository) ListForUser(ctx context.Context, userID int64) ([]model.Challenge, error) {
	sub := r.db.Model(&model.ChallengeParticipant{}).
		Select("challenge_id").Where("user_id = ?", userID)
	var challenges []model.Challenge
	err := r.db.WithContext(ctx).Preload("Participants").
		Where("creator_id = ? OR id IN (?)", userID, sub).
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// ListExpired returns challenges past their lifespan, fully preloaded for
// settlement.
func (r *ChallengeRepository) ListExpired(ctx context.Context, now time.Time) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Quiz").
		Where("expires_at <= ?", now).
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// FindParticipant returns the participant row for a user in a challenge, or
// nil if the user was never invited.
func (r *ChallengeRepository) FindParticipant(ctx context.Context, challengeID uint, userID int64) (*model.ChallengeParticipant, error) {
	var participant model.ChallengeParticipant
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *ChallengeRepository) SaveParticipant(ctx context.Context, participant *model.ChallengeParticipant) error {
	if err := r.db.WithContext(ctx).Save(participant).Error; err != nil {
		return fmt.Errorf("save participant: %w", err)
	}
	return nil
}

// Delete hard-removes the challenge and everything it owns. SQLite has no
// cascade here, so children go explicitly, leaves first.
func (r *ChallengeRepository) Delete(ctx context.Context, challengeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz model.Quiz
		err := tx.Where("challenge_id = ?", challengeID).First(&quiz).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find quiz: %w", err)
		}
		if err == nil {
			var questionIDs []uint
			if err := tx.Model(&model.Question{}).Where("quiz_id = ?", quiz.ID).
				Pluck("id", &questionIDs).Error; err != nil {
				return fmt.Errorf("list questions: %w", err)
			}
			if len(questionIDs) > 0 {
				if err := tx.Where("question_id IN ?", questionIDs).
					Delete(&model.QuestionOption{}).Error; err != nil {
					return fmt.Errorf("delete options: %w", err)
				}
			}
			if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&model.Question{}).Error; err != nil {
				return fmt.Errorf("delete questions: %w", err)
			}
			if err := tx.Delete(&quiz).Error; err != nil {
				return fmt.Errorf("delete quiz: %w", err)
			}
		}
		if err := tx.Where("challenge_id = ?", challengeID).
			Delete(&model.ChallengeParticipant{}).Error; err != nil {
			return fmt.Errorf("delete participants: %w", err)
		}
		if err := tx.Where("id = ?", challengeID).Delete(&model.Challenge{}).Error; err != nil {
			return fmt.Errorf("delete challenge: %w", err)
		}
		return nil
	})
}
