package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/config"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/notify"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)

	var notifier service.Notifier
	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegram(cfg.TelegramToken)
		if err != nil {
			log.Fatalf("notify: %v", err)
		}
		notifier = telegram
	} else {
		log.Println("TELEGRAM_TOKEN not set, notifications disabled")
	}

	taskSvc := service.NewTaskService(taskRepo, calendarRepo)
	challengeSvc := service.NewChallengeService(repository.NewChallengeRepository(db), userRepo)
	reminderSvc := service.NewReminderService(calendarRepo, userRepo, notifier)
	maintenanceSvc := service.NewMaintenanceService(habitRepo, calendarRepo, userRepo)

	scheduler := service.NewSchedulerService(time.Local)

	runJob := func(name string, job func(context.Context) error) func() {
		return func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := job(jobCtx); err != nil {
				log.Printf("%s: %v", name, err)
			}
		}
	}

	mustInterval := func(name string, interval time.Duration, job func()) {
		if _, err := scheduler.ScheduleInterval(interval, job); err != nil {
			log.Fatalf("schedule %s: %v", name, err)
		}
	}
	mustDaily := func(name, at string, job func()) {
		if _, err := scheduler.ScheduleDaily(at, job); err != nil {
			log.Fatalf("schedule %s: %v", name, err)
		}
	}

	mustInterval("reminders", cfg.ReminderInterval, runJob("reminders", func(ctx context.Context) error {
		_, err := reminderSvc.SendUpcomingReminders(ctx)
		return err
	}))
	mustInterval("challenge sweep", cfg.ChallengeSweepInterval, runJob("challenge sweep", func(ctx context.Context) error {
		_, err := challengeSvc.SettleExpired(ctx)
		return err
	}))
	mustInterval("subscription sweep", cfg.SubscriptionSweepInterval, runJob("subscription sweep", func(ctx context.Context) error {
		_, err := maintenanceSvc.DeactivateExpiredSubscriptions(ctx)
		return err
	}))
	mustDaily("habit cleanup", cfg.CleanupTime, runJob("habit cleanup", func(ctx context.Context) error {
		_, err := maintenanceSvc.CleanupPastHabitEvents(ctx)
		return err
	}))
	mustDaily("end of day sweep", cfg.EndOfDayTime, runJob("end of day sweep", func(ctx context.Context) error {
		_, err := taskSvc.EndOfDaySweep(ctx)
		return err
	}))
	mustDaily("schedule maintenance", cfg.MaintenanceTime, runJob("schedule maintenance", func(ctx context.Context) error {
		_, err := maintenanceSvc.ExtendHabitSchedules(ctx)
		return err
	}))

	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Admagh backend started.")
	<-ctx.Done()
	log.Println("Shutdown complete.")
}
