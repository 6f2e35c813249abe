package model

import "time"

// Task lifecycle states.
const (
	TaskToDo       = "TO_DO"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
	TaskIncomplete = "INCOMPLETE"
)

// IncompleteGraceSeconds is the remaining-time allotment a task gets when it
// is restarted after being marked incomplete, regardless of its estimate.
const IncompleteGraceSeconds = 3600

// Task represents a single item with a countdown timer. EstimatedHours is the
// source of truth for InitialDurationSeconds; at most one task per owner is
// active (running) at any moment.
type Task struct {
	ID          uint  `gorm:"primaryKey"`
	OwnerID     int64 `gorm:"index"`
	Title       string
	Description string
	Priority    string `gorm:"default:medium"`
	Category    string `gorm:"default:general"`
	Status      string `gorm:"default:TO_DO"`
	Completed   bool   `gorm:"default:false"`
	DueDate     *time.Time

	EstimatedHours         float64 `gorm:"default:1"`
	InitialDurationSeconds int     `gorm:"not null;default:3600"`
	RemainingTimeSeconds   int     `gorm:"not null;default:0"`
	TimeSpentSeconds       int     `gorm:"not null;default:0"`

	IsActive        bool `gorm:"default:false;index"`
	StartTime       *time.Time
	LastRunAt       *time.Time
	ProgressDetails string

	CreatedAt time.Time
	UpdatedAt time.Time
}
