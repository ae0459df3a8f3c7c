package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowmasterhq/flowmaster-be/internal/auth"
	"github.com/flowmasterhq/flowmaster-be/internal/database"
	"github.com/flowmasterhq/flowmaster-be/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	tokens := auth.NewService("test-secret", time.Hour)
	userService := services.NewUserService(db)
	taskService := services.NewTaskService(db)
	cardService := services.NewDailyCardService(db, taskService)

	srv := httptest.NewServer(NewRouter(tokens, userService, taskService, cardService, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends a JSON request and decodes the response body into a generic map.
func doJSON(t *testing.T, method, url, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	body := &bytes.Buffer{}
	if payload != nil {
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			t.Fatalf("Failed to encode payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email, username string) string {
	t.Helper()

	status, _ := doJSON(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{
		"email": email, "username": username, "password": "secret",
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 from register, got %d", status)
	}

	status, body := doJSON(t, "POST", srv.URL+"/api/auth/login", "", map[string]string{
		"identifier": email, "password": "secret",
	})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from login, got %d", status)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatal("Expected an access token from login")
	}
	if body["token_type"] != "bearer" {
		t.Errorf("Expected token_type bearer, got %v", body["token_type"])
	}
	return token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, "GET", srv.URL+"/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from health, got %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/auth/me", "/api/tasks/", "/api/daily-cards/"} {
		if status, _ := doJSON(t, "GET", srv.URL+path, "", nil); status != http.StatusUnauthorized {
			t.Errorf("Expected 401 from %s without token, got %d", path, status)
		}
	}
}

func TestRegisterConflicts(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "a@example.com", "alice")

	status, _ := doJSON(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{
		"email": "a@example.com", "username": "other", "password": "secret",
	})
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for a taken email, got %d", status)
	}

	status, _ = doJSON(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{
		"email": "b@example.com", "username": "alice", "password": "secret",
	})
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for a taken username, got %d", status)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "a@example.com", "alice")

	status, _ := doJSON(t, "POST", srv.URL+"/api/auth/login", "", map[string]string{
		"identifier": "a@example.com", "password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a bad password, got %d", status)
	}
}

func TestEndToEndFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "a@example.com", "alice")

	// /auth/me resolves the token back to the user without the hash.
	status, me := doJSON(t, "GET", srv.URL+"/api/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from me, got %d", status)
	}
	if me["username"] != "alice" {
		t.Errorf("Expected username alice, got %v", me["username"])
	}
	if _, leaked := me["password_hash"]; leaked {
		t.Error("Password hash must never appear in a response")
	}

	// Create a task.
	status, task := doJSON(t, "POST", srv.URL+"/api/tasks/", token, map[string]interface{}{
		"title": "X", "list_type": "todo",
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 from task create, got %d", status)
	}
	if task["is_completed"] != false {
		t.Error("A created task must not be completed")
	}
	taskID, _ := task["id"].(string)

	// Complete it.
	status, task = doJSON(t, "PUT", srv.URL+"/api/tasks/"+taskID+"/complete", token, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from complete, got %d", status)
	}
	if task["is_completed"] != true || task["completed_at"] == nil {
		t.Error("Expected the task completed with a completed-at timestamp")
	}

	// Create today's card with that task.
	status, card := doJSON(t, "POST", srv.URL+"/api/daily-cards/", token, map[string]interface{}{
		"tasks": []map[string]string{{"task_id": taskID}},
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 from card create, got %d", status)
	}

	status, today := doJSON(t, "GET", srv.URL+"/api/daily-cards/today", token, nil)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from today, got %d", status)
	}
	if today["id"] != card["id"] {
		t.Errorf("Expected today's card %v, got %v", card["id"], today["id"])
	}
	snapshots, _ := today["tasks"].([]interface{})
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 task snapshot, got %d", len(snapshots))
	}

	// Append an accomplishment linked to the task.
	status, entry := doJSON(t, "POST", srv.URL+"/api/daily-cards/"+card["id"].(string)+"/accomplishments", token, map[string]string{
		"title": "Shipped X", "source": "task", "task_id": taskID,
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 from accomplishment, got %d", status)
	}
	if entry["title"] != "Shipped X" {
		t.Errorf("Expected the appended entry back, got %v", entry["title"])
	}

	// A second card for the same date conflicts.
	status, _ = doJSON(t, "POST", srv.URL+"/api/daily-cards/", token, map[string]interface{}{
		"tasks": []map[string]string{{"task_id": taskID}},
	})
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for a duplicate card, got %d", status)
	}

	// Another user cannot see, change or delete the task: 404, not 403.
	tokenB := registerAndLogin(t, srv, "b@example.com", "bob")
	for _, method := range []string{"GET", "PUT", "DELETE"} {
		payload := map[string]string{}
		status, _ := doJSON(t, method, srv.URL+"/api/tasks/"+taskID, tokenB, payload)
		if status != http.StatusNotFound {
			t.Errorf("Expected 404 from cross-owner %s, got %d", method, status)
		}
	}

	// Move validation happens before the lookup.
	status, _ = doJSON(t, "PUT", srv.URL+"/api/tasks/"+taskID+"/move", token, map[string]string{"list_type": "someday"})
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad list type, got %d", status)
	}
	status, task = doJSON(t, "PUT", srv.URL+"/api/tasks/"+taskID+"/move", token, map[string]string{"list_type": "later"})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from move, got %d", status)
	}
	if task["list_type"] != "later" {
		t.Errorf("Expected list later, got %v", task["list_type"])
	}
}
