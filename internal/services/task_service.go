package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/flowmasterhq/flowmaster-be/internal/models"
)

// maxTaskListResults caps how many tasks a single list query returns.
const maxTaskListResults = 100

// TaskUpdate carries the fields of a partial task update. Nil fields are
// left untouched.
type TaskUpdate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ListType    *string    `json:"list_type"`
	Priority    *int       `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *[]string  `json:"tags"`
	IsCompleted *bool      `json:"is_completed"`
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	GetTasks(userID, listType string) ([]models.Task, error)
	GetTaskByID(userID, taskID string) (models.Task, error)
	CreateTask(userID string, task models.Task) (models.Task, error)
	UpdateTask(userID, taskID string, update TaskUpdate) (models.Task, error)
	DeleteTask(userID, taskID string) error
	CompleteTask(userID, taskID string) (models.Task, error)
	MoveTask(userID, taskID, listType string) (models.Task, error)
}

// TaskService provides business logic for task management. Every operation
// is scoped to the owning user.
type TaskService struct {
	db *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

const taskColumns = "id, user_id, title, description, list_type, priority, due_date, tags_json, is_completed, completed_at, created_at, updated_at"

func scanTask(scanner interface{ Scan(...interface{}) error }) (models.Task, error) {
	var task models.Task
	var desc, tags sql.NullString
	var priority sql.NullInt64
	var dueDate, completedAt sql.NullTime

	err := scanner.Scan(
		&task.ID, &task.UserID, &task.Title, &desc, &task.ListType,
		&priority, &dueDate, &tags, &task.IsCompleted, &completedAt,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return task, err
	}

	task.Description = desc.String
	task.TagsJSON = tags.String
	if priority.Valid {
		p := int(priority.Int64)
		task.Priority = &p
	}
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}

	task.PrepareForAPI()
	return task, nil
}

// GetTasks retrieves the user's tasks, optionally filtered by list type.
func (s *TaskService) GetTasks(userID, listType string) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE user_id = ?"
	args := []interface{}{userID}
	if listType != "" {
		query += " AND list_type = ?"
		args = append(args, listType)
	}
	query += " LIMIT ?"
	args = append(args, maxTaskListResults)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTaskByID retrieves a single task scoped to its owner.
func (s *TaskService) GetTaskByID(userID, taskID string) (models.Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// CreateTask persists a new task for the user. The completion flag is always
// forced false on creation.
func (s *TaskService) CreateTask(userID string, task models.Task) (models.Task, error) {
	if !models.ValidListType(task.ListType) {
		return models.Task{}, ErrBadListType
	}

	now := time.Now().UTC()
	task.ID = uuid.New().String()
	task.UserID = userID
	task.IsCompleted = false
	task.CompletedAt = nil
	task.CreatedAt = now
	task.UpdatedAt = now
	task.PrepareForSave()

	stmt, err := s.db.Prepare(`INSERT INTO tasks(id, user_id, title, description, list_type, priority, due_date, tags_json, is_completed, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.Task{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		task.ID, task.UserID, task.Title, task.Description, task.ListType,
		task.Priority, task.DueDate, task.TagsJSON, task.IsCompleted,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update to an owned task. The updated-at
// timestamp is always refreshed. A completion transition from false to true
// sets completed-at; setting the flag false clears it.
func (s *TaskService) UpdateTask(userID, taskID string, update TaskUpdate) (models.Task, error) {
	task, err := s.GetTaskByID(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if update.ListType != nil && !models.ValidListType(*update.ListType) {
		return models.Task{}, ErrBadListType
	}

	now := time.Now().UTC()
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.ListType != nil {
		task.ListType = *update.ListType
	}
	if update.Priority != nil {
		task.Priority = update.Priority
	}
	if update.DueDate != nil {
		task.DueDate = update.DueDate
	}
	if update.Tags != nil {
		task.Tags = *update.Tags
	}
	if update.IsCompleted != nil {
		if *update.IsCompleted && !task.IsCompleted {
			task.CompletedAt = &now
		} else if !*update.IsCompleted {
			task.CompletedAt = nil
		}
		task.IsCompleted = *update.IsCompleted
	}
	task.UpdatedAt = now
	task.PrepareForSave()

	stmt, err := s.db.Prepare(`UPDATE tasks SET title = ?, description = ?, list_type = ?, priority = ?, due_date = ?,
		tags_json = ?, is_completed = ?, completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	if err != nil {
		return models.Task{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		task.Title, task.Description, task.ListType, task.Priority, task.DueDate,
		task.TagsJSON, task.IsCompleted, task.CompletedAt, task.UpdatedAt,
		taskID, userID,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask removes an owned task.
func (s *TaskService) DeleteTask(userID, taskID string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CompleteTask marks a task completed, overwriting completed-at with now
// regardless of prior state.
func (s *TaskService) CompleteTask(userID, taskID string) (models.Task, error) {
	task, err := s.GetTaskByID(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	task.IsCompleted = true
	task.CompletedAt = &now
	task.UpdatedAt = now

	_, err = s.db.Exec("UPDATE tasks SET is_completed = 1, completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		now, now, taskID, userID)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// MoveTask moves a task to a different list. The list type is validated
// before any store access.
func (s *TaskService) MoveTask(userID, taskID, listType string) (models.Task, error) {
	if !models.ValidListType(listType) {
		return models.Task{}, ErrBadListType
	}

	task, err := s.GetTaskByID(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	task.ListType = listType
	task.UpdatedAt = now

	_, err = s.db.Exec("UPDATE tasks SET list_type = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		listType, now, taskID, userID)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}
