package service

import (
	"context"
	"log/slog"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/guard"
	"github.com/flipcoin/miniapp/internal/profile"
)

// TaskService lists and completes server-defined tasks.
type TaskService struct {
	profile   *profile.Manager
	remote    TaskAPI
	completed *guard.CompletedTasks
	logger    *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(mgr *profile.Manager, remote TaskAPI, completed *guard.CompletedTasks, logger *slog.Logger) *TaskService {
	return &TaskService{profile: mgr, remote: remote, completed: completed, logger: logger}
}

// List fetches the task list. The fetched list is authoritative, so the
// session's completed set starts over.
func (s *TaskService) List(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.remote.FetchTasks(ctx)
	if err != nil {
		return nil, err
	}
	s.completed.Reset()
	return tasks, nil
}

// Visible drops tasks completed since the last List.
func (s *TaskService) Visible(tasks []domain.Task) []domain.Task {
	return s.completed.Filter(tasks)
}

// Complete asks the server to reward a task and applies the confirmed balance.
func (s *TaskService) Complete(ctx context.Context, taskID int64) (domain.TaskCompletion, error) {
	if res := s.completed.Check(ctx, taskID); !res.Allowed {
		return domain.TaskCompletion{}, domain.ErrTaskAlreadyCompleted(res.Reason)
	}

	done, err := s.remote.CompleteTask(ctx, taskID)
	if err != nil {
		if domain.IsCode(err, domain.CodeTaskAlreadyCompleted) {
			s.completed.Mark(taskID)
		}
		return domain.TaskCompletion{}, err
	}
	s.completed.Mark(taskID)

	if _, err := s.profile.ApplyBalance(ctx, done.Balance, done.Version); err != nil {
		s.logger.Warn("task reward balance not applied", "task_id", taskID, "error", err)
	}
	s.logger.Info("task completed", "task_id", taskID, "tokens", done.TokensAwarded)
	return done, nil
}

// History returns the completion history.
func (s *TaskService) History(ctx context.Context) ([]domain.CompletedTask, error) {
	return s.remote.FetchCompletedTasks(ctx)
}
