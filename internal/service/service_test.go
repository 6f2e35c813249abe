package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// newTestDB opens an in-memory database pinned to a single connection so
// every query sees the same schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com", IsActive: true}
	if err := repository.NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func countEvents(t *testing.T, db *gorm.DB) int {
	t.Helper()
	var count int64
	if err := db.Model(&model.CalendarEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return int(count)
}
