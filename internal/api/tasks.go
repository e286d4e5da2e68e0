package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flipcoin/miniapp/internal/domain"
)

// FetchTasks returns the tasks available to the user.
func (c *Client) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	var resp struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if err := c.do(ctx, call{op: opFetchTasks, method: http.MethodGet, path: "/tasks/"}, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		return []domain.Task{}, nil
	}
	return resp.Tasks, nil
}

// CompleteTask asks the server to verify and reward a task.
func (c *Client) CompleteTask(ctx context.Context, taskID int64) (domain.TaskCompletion, error) {
	if taskID <= 0 {
		return domain.TaskCompletion{}, domain.ErrValidation("invalid task id")
	}

	var resp struct {
		TokensAwarded int64 `json:"tokens_awarded"`
		balanceDTO
	}
	err := c.do(ctx, call{
		op:       opCompleteTask,
		method:   http.MethodPost,
		path:     fmt.Sprintf("/tasks/%d/complete", taskID),
		mutating: true,
	}, &resp)
	if err != nil {
		return domain.TaskCompletion{}, err
	}
	balance, err := resp.balance(opCompleteTask)
	if err != nil {
		return domain.TaskCompletion{}, err
	}
	return domain.TaskCompletion{
		TaskID:        taskID,
		TokensAwarded: resp.TokensAwarded,
		Balance:       balance,
		Version:       resp.Version,
	}, nil
}

// FetchCompletedTasks returns the user's completion history.
func (c *Client) FetchCompletedTasks(ctx context.Context) ([]domain.CompletedTask, error) {
	var resp struct {
		CompletedTasks []completedTaskDTO `json:"completed_tasks"`
	}
	if err := c.do(ctx, call{op: opCompletedTasks, method: http.MethodGet, path: "/tasks/completed"}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.CompletedTask, 0, len(resp.CompletedTasks))
	for _, ct := range resp.CompletedTasks {
		out = append(out, domain.CompletedTask{
			ID:            ct.ID,
			TaskID:        ct.TaskID,
			Title:         domain.Localized{EN: ct.TitleEN, RU: ct.TitleRU},
			Type:          domain.TaskType(ct.Type),
			TokensAwarded: ct.TokensAwarded,
			CompletedAt:   ct.CompletedAt.Time,
		})
	}
	return out, nil
}
