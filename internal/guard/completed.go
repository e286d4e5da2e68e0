package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/flipcoin/miniapp/internal/domain"
)

// CompletedTasks remembers tasks completed during this session so views can
// hide them before the next refetch. It is not authoritative: Reset on every
// refetch, and the server decides.
type CompletedTasks struct {
	mu   sync.Mutex
	done map[int64]bool
}

// NewCompletedTasks creates an empty set.
func NewCompletedTasks() *CompletedTasks {
	return &CompletedTasks{done: make(map[int64]bool)}
}

// Check refuses a task already completed this session.
func (c *CompletedTasks) Check(_ context.Context, taskID int64) domain.GuardResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done[taskID] {
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %d already completed", taskID),
			Guard:   "completed_tasks",
		}
	}
	return domain.GuardResult{Allowed: true}
}

// Mark records a completion.
func (c *CompletedTasks) Mark(taskID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done[taskID] = true
}

// Has reports whether taskID was completed this session.
func (c *CompletedTasks) Has(taskID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done[taskID]
}

// Filter returns tasks not completed this session, preserving order.
func (c *CompletedTasks) Filter(tasks []domain.Task) []domain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !c.done[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// Reset forgets every completion.
func (c *CompletedTasks) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = make(map[int64]bool)
}
