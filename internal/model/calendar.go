package model

import "time"

// Calendar event kinds.
const (
	EventTask  = "task"
	EventHabit = "habit"
)

// CalendarEvent is one time-bounded slot on a user's calendar, owned either
// by a task (scheduled once) or by a habit (one row per occurrence).
type CalendarEvent struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           int64  `gorm:"index"`
	TaskID           *uint  `gorm:"index"`
	HabitID          *uint  `gorm:"index"`
	EventType        string `gorm:"size:20;index;default:task"`
	StartTime        time.Time
	EndTime          time.Time
	NotificationSent bool `gorm:"default:false"`
	CreatedAt        time.Time

	Task  *Task  `gorm:"foreignKey:TaskID"`
	Habit *Habit `gorm:"foreignKey:HabitID"`
}

// Label resolves the display name of the owning task or habit for conflict
// reporting. Requires the association to be preloaded.
func (e *CalendarEvent) Label() string {
	switch {
	case e.Task != nil:
		return e.Task.Title
	case e.Habit != nil:
		return e.Habit.Name
	default:
		return "unknown event"
	}
}

// Duration of the event window.
func (e *CalendarEvent) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}
