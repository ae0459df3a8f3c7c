package models

import (
	"encoding/json"
	"time"
)

// User represents a user account in the system.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // Never expose this to the client
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"` // Nullable until first login

	// JSON string field for DB storage
	PreferencesJSON string `json:"-"`

	// Map field for API interaction
	Preferences map[string]interface{} `json:"preferences"`
}

// PrepareForSave marshals the preference map into its JSON string for DB storage.
func (u *User) PrepareForSave() {
	if u.Preferences == nil {
		u.Preferences = map[string]interface{}{}
	}
	prefsBytes, _ := json.Marshal(u.Preferences)
	u.PreferencesJSON = string(prefsBytes)
}

// PrepareForAPI unmarshals the JSON string field for API responses.
func (u *User) PrepareForAPI() {
	u.Preferences = map[string]interface{}{}
	if u.PreferencesJSON != "" {
		json.Unmarshal([]byte(u.PreferencesJSON), &u.Preferences)
	}
}
