package domain

import "time"

// TaskType classifies how often a task can be completed.
type TaskType string

const (
	TaskDaily       TaskType = "daily"
	TaskWeekly      TaskType = "weekly"
	TaskAchievement TaskType = "achievement"
	TaskSpecial     TaskType = "special"
)

// Task is a server-defined unit of work. Read-only on the client.
type Task struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Type             TaskType `json:"type"`
	RewardTokens     int64    `json:"reward_tokens"`
	RequiredGameType GameType `json:"required_game_type,omitempty"`
	RequiredCount    int      `json:"required_count,omitempty"`
}

// CompletedTask is an entry of the completion history.
type CompletedTask struct {
	ID            int64     `json:"id"`
	TaskID        int64     `json:"task_id"`
	Title         Localized `json:"title"`
	Type          TaskType  `json:"type"`
	TokensAwarded int64     `json:"tokens_awarded"`
	CompletedAt   time.Time `json:"completed_at"`
}

// TaskCompletion is the result of completing a task.
type TaskCompletion struct {
	TaskID        int64 `json:"task_id"`
	TokensAwarded int64 `json:"tokens_awarded"`
	Balance       int64 `json:"balance"`
	Version       int64 `json:"version,omitempty"`
}
