package model

import "time"

// User holds account data referenced by every other entity. IDs are random
// 15-digit numbers assigned at creation, never auto-incremented.
type User struct {
	ID               int64  `gorm:"primaryKey;autoIncrement:false"`
	Name             string `gorm:"index"`
	Email            string `gorm:"uniqueIndex"`
	IsActive         bool   `gorm:"default:true"`
	Plan             string `gorm:"default:free"`
	IsPremium        bool   `gorm:"default:false"`
	PremiumExpiresAt *time.Time
	ChatID           int64 // Telegram chat for reminder delivery, 0 if unset

	// Challenge reward counters, mutated only by challenge settlement.
	GoldCups        int `gorm:"default:0"`
	SilverCups      int `gorm:"default:0"`
	BronzeCups      int `gorm:"default:0"`
	ChallengesCount int `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Friendship links two users. Requests are directional (UserID sent it),
// an accepted row counts for both sides.
type Friendship struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"index"`
	FriendID  int64  `gorm:"index"`
	Status    string `gorm:"default:pending"` // pending, accepted, rejected
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
)
