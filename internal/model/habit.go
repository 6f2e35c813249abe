package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Habit frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// TimeSlot is a time of day for daily habits.
type TimeSlot struct {
	Hour   int `json:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" validate:"min=0,max=59"`
}

// WeeklySlot adds a day-of-week field. Day uses the Sunday=0 convention of
// the mobile client; see the weekday matching in the habit service.
type WeeklySlot struct {
	Day    int `json:"day" validate:"min=0,max=6"`
	Hour   int `json:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" validate:"min=0,max=59"`
}

// MonthlySlot adds a day-of-month field (1-31, no clamping in short months).
type MonthlySlot struct {
	Day    int `json:"day" validate:"min=1,max=31"`
	Hour   int `json:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" validate:"min=0,max=59"`
}

// Slot lists are stored as JSON columns.
type DailySlots []TimeSlot
type WeeklySlots []WeeklySlot
type MonthlySlots []MonthlySlot

func (s DailySlots) Value() (driver.Value, error)   { return slotsValue(s) }
func (s *DailySlots) Scan(value interface{}) error  { return slotsScan(value, s) }
func (s WeeklySlots) Value() (driver.Value, error)  { return slotsValue(s) }
func (s *WeeklySlots) Scan(value interface{}) error { return slotsScan(value, s) }
func (s MonthlySlots) Value() (driver.Value, error) { return slotsValue(s) }
func (s *MonthlySlots) Scan(value interface{}) error {
	return slotsScan(value, s)
}

func slotsValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal slots: %w", err)
	}
	return string(data), nil
}

func slotsScan(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch raw := value.(type) {
	case []byte:
		data = raw
	case string:
		data = []byte(raw)
	default:
		return fmt.Errorf("unexpected slots column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// Habit is a recurring activity materialized into calendar events. Exactly
// one of the three slot lists is populated, matching Frequency. Temporary
// habits carry a [StartDate, EndDate] range; permanent ones are extended on a
// rolling horizon by the maintenance job.
type Habit struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"index"`
	Name        string `gorm:"size:255"`
	Description string

	IsPermanent     bool   `gorm:"index"`
	Frequency       string `gorm:"size:20;index"`
	DurationMinutes int    `gorm:"default:30"`

	DailyTimes   DailySlots   `gorm:"type:json"`
	WeeklyTimes  WeeklySlots  `gorm:"type:json"`
	MonthlyTimes MonthlySlots `gorm:"type:json"`

	StartDate *time.Time
	EndDate   *time.Time

	IsActive  bool `gorm:"default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
