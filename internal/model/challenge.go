package model

import "time"

// Challenge participant states.
const (
	ParticipantInvited   = "invited"
	ParticipantAccepted  = "accepted"
	ParticipantRejected  = "rejected"
	ParticipantCompleted = "completed"
)

// Question kinds.
const (
	QuestionMCQ       = "mcq"
	QuestionTrueFalse = "true_false"
)

// Challenge is a timed competition between friends. It lives for
// LifespanHours, then the settlement sweep ranks completed participants,
// awards cups and deletes the whole tree.
type Challenge struct {
	ID              uint  `gorm:"primaryKey"`
	CreatorID       int64 `gorm:"index"`
	Name            string
	Description     string
	DurationMinutes int
	IsQuiz          bool
	LifespanHours   int `gorm:"default:24"`
	CreatedAt       time.Time
	ExpiresAt       time.Time `gorm:"index"`

	Participants []ChallengeParticipant `gorm:"foreignKey:ChallengeID"`
	Quiz         *Quiz                  `gorm:"foreignKey:ChallengeID"`
}

// ChallengeParticipant tracks one user's run through a challenge.
type ChallengeParticipant struct {
	ID          uint   `gorm:"primaryKey"`
	ChallengeID uint   `gorm:"index"`
	UserID      int64  `gorm:"index"`
	Status      string `gorm:"default:invited"`

	StartTime        *time.Time
	EndTime          *time.Time
	TimeTakenSeconds *int
	Score            *float64 // 0-100, quiz challenges only
	Rank             *int     // 1-3 for podium finishers
}

// Quiz is the optional question set of a quiz challenge.
type Quiz struct {
	ID              uint `gorm:"primaryKey"`
	ChallengeID     uint `gorm:"uniqueIndex"`
	DurationMinutes int

	Questions []Question `gorm:"foreignKey:QuizID"`
}

type Question struct {
	ID          uint `gorm:"primaryKey"`
	QuizID      uint `gorm:"index"`
	Text        string
	Type        string // mcq, true_false
	Explanation string

	Options []QuestionOption `gorm:"foreignKey:QuestionID"`
}

type QuestionOption struct {
	ID         uint `gorm:"primaryKey"`
	QuestionID uint `gorm:"index"`
	Text       string
	IsCorrect  bool `gorm:"default:false"`
}
