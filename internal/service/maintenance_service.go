package service

import (
	"context"
	"log"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// MaintenanceService runs the periodic housekeeping sweeps: rolling habit
// schedule extension, past-occurrence cleanup and subscription expiry. Every
// sweep is idempotent and commits per entity, so a crash mid-run resumes on
// the next tick.
type MaintenanceService struct {
	habits *repository.HabitRepository
	events *repository.CalendarRepository
	users  *repository.UserRepository
	now    func() time.Time
}

func NewMaintenanceService(habits *repository.HabitRepository, events *repository.CalendarRepository, users *repository.UserRepository) *MaintenanceService {
	return &MaintenanceService{habits: habits, events: events, users: users, now: time.Now}
}

// ExtendHabitSchedules keeps every active permanent habit materialized up to
// its look-ahead horizon. Occurrences are deduped by exact start time and
// never conflict-checked: the rule was validated when the habit was created,
// and the extension must not start failing because the user booked something
// later.
func (s *MaintenanceService) ExtendHabitSchedules(ctx context.Context) (int, error) {
	habits, err := s.habits.ListActivePermanent(ctx)
	if err != nil {
		return 0, err
	}

	totalAdded := 0
	for i := range habits {
		added, err := s.extendHabit(ctx, &habits[i])
		if err != nil {
			log.Printf("schedule maintenance: habit %d: %v", habits[i].ID, err)
			continue
		}
		totalAdded += added
	}
	log.Printf("schedule maintenance: %d new events across %d habits", totalAdded, len(habits))
	return totalAdded, nil
}

func (s *MaintenanceService) extendHabit(ctx context.Context, habit *model.Habit) (int, error) {
	target := startOfDay(s.now()).AddDate(0, 0, lookaheadDays(habit.Frequency))

	latest, err := s.events.LatestByHabit(ctx, habit.ID)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		// Nothing materialized yet; extension only tops up existing
		// schedules, it never bootstraps one.
		log.Printf("schedule maintenance: habit %d (%s): no events, skipping", habit.ID, habit.Name)
		return 0, nil
	}

	lastDay := startOfDay(latest.StartTime)
	if !lastDay.Before(target) {
		return 0, nil
	}

	added := 0
	for _, occ := range expandHabit(habit, lastDay.AddDate(0, 0, 1), target) {
		exists, err := s.events.ExistsAt(ctx, habit.ID, occ.Start)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		habitID := habit.ID
		event := model.CalendarEvent{
			UserID:    habit.UserID,
			HabitID:   &habitID,
			EventType: model.EventHabit,
			StartTime: occ.Start,
			EndTime:   occ.End,
		}
		if err := s.events.Create(ctx, &event); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// CleanupPastHabitEvents trims habit occurrences that started before today.
// Pure retention trim.
func (s *MaintenanceService) CleanupPastHabitEvents(ctx context.Context) (int64, error) {
	deleted, err := s.events.DeleteHabitEventsBefore(ctx, startOfDay(s.now()))
	if err != nil {
		return 0, err
	}
	log.Printf("habit cleanup: %d old events deleted", deleted)
	return deleted, nil
}

// DeactivateExpiredSubscriptions reverts lapsed premium users to the free
// plan.
func (s *MaintenanceService) DeactivateExpiredSubscriptions(ctx context.Context) (int, error) {
	expired, err := s.users.ListExpiredPremium(ctx, s.now())
	if err != nil {
		return 0, err
	}

	deactivated := 0
	for i := range expired {
		user := &expired[i]
		user.Plan = "free"
		user.IsPremium = false
		user.PremiumExpiresAt = nil
		if err := s.users.Save(ctx, user); err != nil {
			log.Printf("subscription sweep: user %d: %v", user.ID, err)
			continue
		}
		deactivated++
	}
	if deactivated > 0 {
		log.Printf("subscription sweep: deactivated %d expired subscriptions", deactivated)
	}
	return deactivated, nil
}
