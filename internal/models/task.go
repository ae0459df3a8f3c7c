package models

import (
	"encoding/json"
	"time"
)

// Valid list classifications for a task.
const (
	ListTodo  = "todo"
	ListWatch = "watch"
	ListLater = "later"
)

// ValidListType reports whether lt is one of the fixed list classifications.
func ValidListType(lt string) bool {
	return lt == ListTodo || lt == ListWatch || lt == ListLater
}

// Task represents a single task owned by a user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ListType    string     `json:"list_type"`
	Priority    *int       `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// JSON string field for DB storage
	TagsJSON string `json:"-"`

	// Slice field for API interaction
	Tags []string `json:"tags"`
}

// PrepareForSave marshals the tag slice into its JSON string for DB storage.
func (t *Task) PrepareForSave() {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	tagsBytes, _ := json.Marshal(t.Tags)
	t.TagsJSON = string(tagsBytes)
}

// PrepareForAPI unmarshals the JSON string field for API responses.
func (t *Task) PrepareForAPI() {
	t.Tags = []string{}
	if t.TagsJSON != "" {
		json.Unmarshal([]byte(t.TagsJSON), &t.Tags)
	}
}
