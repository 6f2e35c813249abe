package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// Reminder window: events starting roughly half an hour out, with a five
// minute slack on both sides so a five-minute sweep interval never skips one.
const (
	reminderWindowStart = 25 * time.Minute
	reminderWindowEnd   = 35 * time.Minute
)

// ReminderService finds calendar events about to start and pushes a heads-up
// to their owners. Each event is notified at most once.
type ReminderService struct {
	events   *repository.CalendarRepository
	users    *repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewReminderService(events *repository.CalendarRepository, users *repository.UserRepository, notifier Notifier) *ReminderService {
	return &ReminderService{events: events, users: users, notifier: notifier, now: time.Now}
}

// SendUpcomingReminders delivers reminders for events starting inside the
// window and marks them notified. Returns the number of events processed.
func (s *ReminderService) SendUpcomingReminders(ctx context.Context) (int, error) {
	now := s.now()
	upcoming, err := s.events.FindUpcomingUnnotified(ctx, now.Add(reminderWindowStart), now.Add(reminderWindowEnd))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range upcoming {
		event := &upcoming[i]
		if err := s.deliver(ctx, event.UserID, event.Label(), event.StartTime); err != nil {
			log.Printf("reminder: event %d: %v", event.ID, err)
		}
		// Marked regardless of delivery so a broken chat id cannot make the
		// sweep retry the same event forever.
		if err := s.events.MarkNotified(ctx, event.ID); err != nil {
			log.Printf("reminder: mark event %d: %v", event.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *ReminderService) deliver(ctx context.Context, userID int64, label string, start time.Time) error {
	if s.notifier == nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ChatID == 0 {
		return nil
	}
	text := fmt.Sprintf("⏰ Upcoming: %s starts at %s", label, start.Format("15:04"))
	return s.notifier.Send(ctx, user.ChatID, text)
}
