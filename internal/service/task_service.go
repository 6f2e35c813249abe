package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/model"
	"github.com/Ahmed122223-g/Admagh-back-mobile/internal/repository"
)

// CreateTaskInput represents data required to create a task.
type CreateTaskInput struct {
	Title          string `validate:"required"`
	Description    string
	Priority       string
	Category       string
	DueDate        *time.Time
	EstimatedHours float64 `validate:"required,gt=0"`
}

// UpdateTaskInput patches a task; nil fields stay untouched.
type UpdateTaskInput struct {
	Title          *string `validate:"omitempty,min=1"`
	Description    *string
	Priority       *string
	Category       *string
	DueDate        *time.Time
	EstimatedHours *float64 `validate:"omitempty,gt=0"`
}

// TaskService wraps task CRUD and the per-task timer state machine:
// TO_DO -> IN_PROGRESS -> COMPLETED/INCOMPLETE, at most one running task per
// user.
type TaskService struct {
	tasks  *repository.TaskRepository
	events *repository.CalendarRepository
	now    func() time.Time
}

func NewTaskService(tasks *repository.TaskRepository, events *repository.CalendarRepository) *TaskService {
	return &TaskService{tasks: tasks, events: events, now: time.Now}
}

// Create seeds the countdown from the estimate: initial and remaining time
// both start at estimated_hours * 3600 seconds.
func (s *TaskService) Create(ctx context.Context, userID int64, input CreateTaskInput) (*model.Task, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	initial := int(input.EstimatedHours * 3600)
	task := &model.Task{
		OwnerID:                userID,
		Title:                  input.Title,
		Description:            input.Description,
		Status:                 model.TaskToDo,
		DueDate:                input.DueDate,
		EstimatedHours:         input.EstimatedHours,
		InitialDurationSeconds: initial,
		RemainingTimeSeconds:   initial,
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	if input.Category != "" {
		task.Category = input.Category
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, userID int64, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, asNotFound(err, "task")
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, userID int64, offset, limit int) ([]model.Task, error) {
	return s.tasks.List(ctx, userID, offset, limit)
}

// Active returns the user's currently running task, or nil.
func (s *TaskService) Active(ctx context.Context, userID int64) (*model.Task, error) {
	return s.tasks.FindActive(ctx, userID)
}

// Update patches task fields. Completed tasks are immutable. A changed
// due date or estimate is pushed through to the task's calendar slot.
func (s *TaskService) Update(ctx context.Context, userID int64, taskID uint, input UpdateTaskInput) (*model.Task, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, asNotFound(err, "task")
	}
	if task.Completed {
		return nil, fmt.Errorf("%w: completed tasks cannot be edited", ErrInvalidState)
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = *input.EstimatedHours
		task.InitialDurationSeconds = int(*input.EstimatedHours * 3600)
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	if input.DueDate != nil || input.EstimatedHours != nil {
		if err := s.syncCalendarEvent(ctx, task, input); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// syncCalendarEvent keeps a scheduled task's calendar slot aligned with its
// due date and estimate.
func (s *TaskService) syncCalendarEvent(ctx context.Context, task *model.Task, input UpdateTaskInput) error {
	event, err := s.events.FindByTask(ctx, task.ID)
	if err != nil || event == nil {
		return err
	}
	start := event.StartTime
	duration := event.EndTime.Sub(event.StartTime)
	if input.DueDate != nil {
		start = *input.DueDate
	}
	if input.EstimatedHours != nil {
		duration = time.Duration(*input.EstimatedHours * float64(time.Hour))
	}
	event.StartTime = start
	event.EndTime = start.Add(duration)
	return s.events.Save(ctx, event)
}

func (s *TaskService) Delete(ctx context.Context, userID int64, taskID uint) error {
	if _, err := s.tasks.FindByID(ctx, userID, taskID); err != nil {
		return asNotFound(err, "task")
	}
	return s.tasks.Delete(ctx, userID, taskID)
}

// StartTimer starts or resumes the countdown. Fails when another task is
// already running or the task is completed. Remaining-time seed: a task
// marked incomplete restarts with the fixed one-hour grace runway, a fresh
// or exhausted task restarts from its estimate, anything else resumes.
func (s *TaskService) StartTimer(ctx context.Context, userID int64, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, asNotFound(err, "task")
	}

	active, err := s.tasks.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil && active.ID != task.ID {
		return nil, fmt.Errorf("%w: another task is already running", ErrInvalidState)
	}
	if task.Status == model.TaskCompleted {
		return nil, fmt.Errorf("%w: cannot start a completed task", ErrInvalidState)
	}

	switch {
	case task.Status == model.TaskIncomplete:
		task.RemainingTimeSeconds = model.IncompleteGraceSeconds
	case task.Status == model.TaskToDo || task.RemainingTimeSeconds <= 0:
		task.RemainingTimeSeconds = task.InitialDurationSeconds
	}

	now := s.now()
	task.IsActive = true
	task.StartTime = &now
	task.LastRunAt = &now
	task.Status = model.TaskInProgress

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// StopTimer pauses the countdown: elapsed seconds move into time spent and
// out of remaining time (floored at zero).
func (s *TaskService) StopTimer(ctx context.Context, userID int64, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, asNotFound(err, "task")
	}
	if !task.IsActive || task.StartTime == nil {
		return nil, fmt.Errorf("%w: task is not running", ErrInvalidState)
	}

	elapsed := int(s.now().Sub(*task.StartTime).Seconds())
	task.TimeSpentSeconds += elapsed
	task.RemainingTimeSeconds = max(0, task.RemainingTimeSeconds-elapsed)
	task.IsActive = false
	task.StartTime = nil

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Complete marks the task done. Deliberately no timer side effects: a still
// running timer must be stopped first by the caller.
func (s *TaskService) Complete(ctx context.Context, userID int64, taskID uint, progressDetails string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, asNotFound(err, "task")
	}

	task.Status = model.TaskCompleted
	task.Completed = true
	if progressDetails != "" {
		task.ProgressDetails = progressDetails
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// MarkIncomplete moves the task out of the current cycle; the next start
// reseeds its remaining time with the grace allotment.
func (s *TaskService) MarkIncomplete(ctx context.Context, userID int64, taskID uint, progressDetails string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, asNotFound(err, "task")
	}

	task.Status = model.TaskIncomplete
	task.Completed = false
	if progressDetails != "" {
		task.ProgressDetails = progressDetails
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// EndOfDaySweep closes out the day: every task still TO_DO or IN_PROGRESS
// becomes INCOMPLETE. Running tasks are stopped first so their elapsed time
// is accounted, then marked like the rest.
func (s *TaskService) EndOfDaySweep(ctx context.Context) (int, error) {
	tasks, err := s.tasks.ListUnfinished(ctx)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range tasks {
		task := &tasks[i]
		if task.IsActive {
			if _, err := s.StopTimer(ctx, task.OwnerID, task.ID); err != nil {
				log.Printf("end-of-day sweep: stop task %d: %v", task.ID, err)
				continue
			}
			refreshed, err := s.tasks.FindByID(ctx, task.OwnerID, task.ID)
			if err != nil {
				log.Printf("end-of-day sweep: reload task %d: %v", task.ID, err)
				continue
			}
			task = refreshed
		}
		task.Status = model.TaskIncomplete
		task.Completed = false
		if err := s.tasks.Save(ctx, task); err != nil {
			log.Printf("end-of-day sweep: save task %d: %v", task.ID, err)
			continue
		}
		swept++
	}
	return swept, nil
}
