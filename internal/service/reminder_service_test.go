package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

type recordedMessage struct {
	ChatID int64
	Text   string
}

// fakeNotifier records deliveries instead of talking to Telegram.
type fakeNotifier struct {
	sent []recordedMessage
}

func (f *fakeNotifier) Send(_ context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, recordedMessage{ChatID: chatID, Text: text})
	return nil
}

func TestSendUpcomingRemindersOnlyInsideWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	events := repository.NewCalendarRepository(db)
	users := repository.NewUserRepository(db)

	user := newTestUser(t, db, "alice")
	user.ChatID = 4242
	if err := users.Save(ctx, user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	taskRepo := repository.NewTaskRepository(db)
	task := &model.Task{OwnerID: user.ID, Title: "Standup"}
	if err := taskRepo.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	makeEvent := func(start time.Time) *model.CalendarEvent {
		event := &model.CalendarEvent{
			UserID:    user.ID,
			TaskID:    &task.ID,
			EventType: model.EventTask,
			StartTime: start,
			EndTime:   start.Add(30 * time.Minute),
		}
		if err := events.Create(ctx, event); err != nil {
			t.Fatalf("create event at %v: %v", start, err)
		}
		return event
	}
	soon := makeEvent(now.Add(30 * time.Minute))
	makeEvent(now.Add(2 * time.Hour))

	notifier := &fakeNotifier{}
	svc := NewReminderService(events, users, notifier)
	svc.now = fixedClock(now)

	sent, err := svc.SendUpcomingReminders(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 1 {
		t.Fatalf("processed %d events, want 1", sent)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(notifier.sent))
	}
	if notifier.sent[0].ChatID != 4242 || !strings.Contains(notifier.sent[0].Text, "Standup") {
		t.Fatalf("unexpected message %+v", notifier.sent[0])
	}

	reloaded, err := events.FindByID(ctx, user.ID, soon.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if !reloaded.NotificationSent {
		t.Fatalf("event not marked notified")
	}

	// Second sweep finds nothing new.
	sent, err = svc.SendUpcomingReminders(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if sent != 0 {
		t.Fatalf("second sweep processed %d events, want 0", sent)
	}
}

func TestSendUpcomingRemindersWithoutNotifierStillMarks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	events := repository.NewCalendarRepository(db)
	users := repository.NewUserRepository(db)
	user := newTestUser(t, db, "bob")

	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	event := &model.CalendarEvent{
		UserID:    user.ID,
		EventType: model.EventTask,
		StartTime: now.Add(30 * time.Minute),
		EndTime:   now.Add(time.Hour),
	}
	if err := events.Create(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}

	svc := NewReminderService(events, users, nil)
	svc.now = fixedClock(now)
	sent, err := svc.SendUpcomingReminders(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 1 {
		t.Fatalf("processed %d events, want 1", sent)
	}

	reloaded, err := events.FindByID(ctx, user.ID, event.ID)
	if err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if !reloaded.NotificationSent {
		t.Fatalf("event not marked notified without a notifier")
	}
}
