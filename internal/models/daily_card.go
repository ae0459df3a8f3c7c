package models

import (
	"encoding/json"
	"time"
)

// Accomplishment sources.
const (
	SourceManual = "manual"
	SourceTask   = "task"
)

// CardDateLayout is the calendar-date format daily cards are keyed by.
const CardDateLayout = "2006-01-02"

// CardTask is a denormalized snapshot of a task embedded in a daily card.
type CardTask struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// Accomplishment is a free-text achievement entry on a daily card.
type Accomplishment struct {
	Title  string  `json:"title"`
	Source string  `json:"source"` // "manual" or "task"
	TaskID *string `json:"task_id,omitempty"`
}

// DailyCard is a per-day digest of selected tasks plus an accomplishment log.
// A user has at most one card per calendar date.
type DailyCard struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"` // YYYY-MM-DD, UTC
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// JSON string fields for DB storage
	TasksJSON           string `json:"-"`
	AccomplishmentsJSON string `json:"-"`

	// Slice fields for API interaction
	Tasks           []CardTask       `json:"tasks"`
	Accomplishments []Accomplishment `json:"accomplishments"`
}

// PrepareForSave marshals the slice fields into their JSON strings for DB storage.
func (c *DailyCard) PrepareForSave() {
	if c.Tasks == nil {
		c.Tasks = []CardTask{}
	}
	tasksBytes, _ := json.Marshal(c.Tasks)
	c.TasksJSON = string(tasksBytes)

	if c.Accomplishments == nil {
		c.Accomplishments = []Accomplishment{}
	}
	accBytes, _ := json.Marshal(c.Accomplishments)
	c.AccomplishmentsJSON = string(accBytes)
}

// PrepareForAPI unmarshals the JSON string fields for API responses.
func (c *DailyCard) PrepareForAPI() {
	c.Tasks = []CardTask{}
	if c.TasksJSON != "" {
		json.Unmarshal([]byte(c.TasksJSON), &c.Tasks)
	}
	c.Accomplishments = []Accomplishment{}
	if c.AccomplishmentsJSON != "" {
		json.Unmarshal([]byte(c.AccomplishmentsJSON), &c.Accomplishments)
	}
}
