package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/flowmasterhq/flowmaster-be/internal/models"
)

func TestCreateTaskDefaults(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	task, err := svc.CreateTask("user-a", models.Task{
		Title:       "Write report",
		ListType:    models.ListTodo,
		IsCompleted: true, // must be ignored
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if task.IsCompleted {
		t.Error("A created task must not be completed")
	}
	if task.CompletedAt != nil {
		t.Error("A created task must have no completed-at timestamp")
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Expected created-at and updated-at to be set")
	}
	if task.Tags == nil {
		t.Error("Expected tags to default to an empty list")
	}
}

func TestCreateTaskBadListType(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	_, err := svc.CreateTask("user-a", models.Task{Title: "x", ListType: "someday"})
	if !errors.Is(err, ErrBadListType) {
		t.Errorf("Expected ErrBadListType, got %v", err)
	}
}

func TestGetTasksFilter(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	for _, lt := range []string{models.ListTodo, models.ListTodo, models.ListWatch} {
		if _, err := svc.CreateTask("user-a", models.Task{Title: "t", ListType: lt}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	all, err := svc.GetTasks("user-a", "")
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 tasks, got %d", len(all))
	}

	todos, err := svc.GetTasks("user-a", models.ListTodo)
	if err != nil {
		t.Fatalf("GetTasks with filter failed: %v", err)
	}
	if len(todos) != 2 {
		t.Errorf("Expected 2 todo tasks, got %d", len(todos))
	}

	other, err := svc.GetTasks("user-b", "")
	if err != nil {
		t.Fatalf("GetTasks for other user failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no tasks for another user, got %d", len(other))
	}
}

func TestGetTasksCap(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	for i := 0; i < maxTaskListResults+1; i++ {
		if _, err := svc.CreateTask("user-a", models.Task{
			Title:    fmt.Sprintf("Task %d", i+1),
			ListType: models.ListTodo,
		}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	tasks, err := svc.GetTasks("user-a", "")
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	if len(tasks) != maxTaskListResults {
		t.Errorf("Expected the list capped at %d tasks, got %d", maxTaskListResults, len(tasks))
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	task, err := svc.CreateTask("user-a", models.Task{Title: "Old", ListType: models.ListTodo})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	newTitle := "New"
	updated, err := svc.UpdateTask("user-a", task.ID, TaskUpdate{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Title != "New" {
		t.Errorf("Expected title New, got %s", updated.Title)
	}
	if updated.ListType != models.ListTodo {
		t.Errorf("Untouched field changed: list type is now %s", updated.ListType)
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Error("Expected updated-at to be refreshed")
	}
}

func TestUpdateTaskCompletionTransition(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	task, err := svc.CreateTask("user-a", models.Task{Title: "t", ListType: models.ListTodo})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	done := true
	first, err := svc.UpdateTask("user-a", task.ID, TaskUpdate{IsCompleted: &done})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if !first.IsCompleted || first.CompletedAt == nil {
		t.Fatal("Expected completion flag and completed-at to be set")
	}

	// A repeated true via update must not move completed-at.
	time.Sleep(10 * time.Millisecond)
	second, err := svc.UpdateTask("user-a", task.ID, TaskUpdate{IsCompleted: &done})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("Repeated completion via update must keep the original completed-at")
	}

	// Flipping back to false clears completed-at.
	undone := false
	third, err := svc.UpdateTask("user-a", task.ID, TaskUpdate{IsCompleted: &undone})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if third.IsCompleted || third.CompletedAt != nil {
		t.Error("Expected completion flag and completed-at to be cleared")
	}
}

func TestCompleteTaskUnconditional(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	task, err := svc.CreateTask("user-a", models.Task{Title: "t", ListType: models.ListTodo})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	first, err := svc.CompleteTask("user-a", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if !first.IsCompleted || first.CompletedAt == nil {
		t.Fatal("Expected completion flag and completed-at to be set")
	}

	// Unlike update, complete always overwrites completed-at.
	time.Sleep(10 * time.Millisecond)
	second, err := svc.CompleteTask("user-a", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if !second.CompletedAt.After(*first.CompletedAt) {
		t.Error("Repeated complete must overwrite completed-at")
	}
}

func TestMoveTask(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	// List type is validated before any lookup, so even a nonexistent id
	// reports the bad list type first.
	if _, err := svc.MoveTask("user-a", "missing", "someday"); !errors.Is(err, ErrBadListType) {
		t.Errorf("Expected ErrBadListType, got %v", err)
	}

	task, err := svc.CreateTask("user-a", models.Task{Title: "t", ListType: models.ListTodo})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	moved, err := svc.MoveTask("user-a", task.ID, models.ListLater)
	if err != nil {
		t.Fatalf("MoveTask failed: %v", err)
	}
	if moved.ListType != models.ListLater {
		t.Errorf("Expected list later, got %s", moved.ListType)
	}

	if _, err := svc.MoveTask("user-a", "missing", models.ListWatch); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestCrossOwnerIsolation(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	task, err := svc.CreateTask("user-a", models.Task{Title: "t", ListType: models.ListTodo})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, err := svc.GetTaskByID("user-b", task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound on cross-owner get, got %v", err)
	}
	title := "stolen"
	if _, err := svc.UpdateTask("user-b", task.ID, TaskUpdate{Title: &title}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound on cross-owner update, got %v", err)
	}
	if err := svc.DeleteTask("user-b", task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound on cross-owner delete, got %v", err)
	}

	// The owner still sees the task untouched.
	kept, err := svc.GetTaskByID("user-a", task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if kept.Title != "t" {
		t.Errorf("Task was modified across owners: title %s", kept.Title)
	}
}

func TestDeleteTask(t *testing.T) {
	svc := NewTaskService(newTestDB(t))

	task, err := svc.CreateTask("user-a", models.Task{Title: "t", ListType: models.ListTodo})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := svc.DeleteTask("user-a", task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := svc.GetTaskByID("user-a", task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound after delete, got %v", err)
	}
	if err := svc.DeleteTask("user-a", task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound on repeated delete, got %v", err)
	}
}
