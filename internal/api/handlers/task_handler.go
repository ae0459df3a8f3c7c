package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/flowmasterhq/flowmaster-be/internal/auth"
	"github.com/flowmasterhq/flowmaster-be/internal/models"
	"github.com/flowmasterhq/flowmaster-be/internal/services"
)

// TaskHandler handles HTTP requests for task management.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskPayload defines the structure for task creation requests.
type CreateTaskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ListType    string     `json:"list_type"`
	Priority    *int       `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
}

// Validate checks the payload, returning an error on the first violation.
func (p CreateTaskPayload) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !models.ValidListType(p.ListType) {
		return services.ErrBadListType
	}
	return nil
}

// MoveTaskPayload defines the structure for task move requests.
type MoveTaskPayload struct {
	ListType string `json:"list_type"`
}

// GetAll returns the user's tasks, optionally filtered by list type.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	listType := r.URL.Query().Get("list_type")

	tasks, err := h.service.GetTasks(user.ID, listType)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list tasks")
		http.Error(w, "Failed to retrieve tasks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

// Create handles task creation.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var payload CreateTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.service.CreateTask(user.ID, models.Task{
		Title:       payload.Title,
		Description: payload.Description,
		ListType:    payload.ListType,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
		Tags:        payload.Tags,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create task")
		http.Error(w, "Failed to create task", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

// Get returns a single task.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	task, err := h.service.GetTaskByID(user.ID, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("task_id", taskID).Msg("Failed to get task")
		http.Error(w, "Failed to retrieve task", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// Update applies a partial update to a task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	var update services.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.UpdateTask(user.ID, taskID, update)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrBadListType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Str("task_id", taskID).Msg("Failed to update task")
			http.Error(w, "Failed to update task", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	if err := h.service.DeleteTask(user.ID, taskID); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("task_id", taskID).Msg("Failed to delete task")
		http.Error(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete marks a task as completed.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	task, err := h.service.CompleteTask(user.ID, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("task_id", taskID).Msg("Failed to complete task")
		http.Error(w, "Failed to complete task", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// Move moves a task to a different list.
func (h *TaskHandler) Move(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	taskID := chi.URLParam(r, "id")

	var payload MoveTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.MoveTask(user.ID, taskID, payload.ListType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadListType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrTaskNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Error().Err(err).Str("task_id", taskID).Msg("Failed to move task")
			http.Error(w, "Failed to move task", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}
