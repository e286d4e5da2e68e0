package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flipcoin/miniapp/internal/domain"
	"github.com/flipcoin/miniapp/internal/service"
)

// TaskHandler handles task endpoints.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, h.tasks.Visible(tasks))
}

// Complete handles POST /tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	done, err := h.tasks.Complete(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, done)
}

// Completed handles GET /tasks/completed.
func (h *TaskHandler) Completed(w http.ResponseWriter, r *http.Request) {
	history, err := h.tasks.History(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, history)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("invalid id: " + raw)
	}
	return id, nil
}
