package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/flowmasterhq/flowmaster-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(email, username, password string) (models.User, error)
	Authenticate(identifier, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var prefs sql.NullString
	var lastLogin sql.NullTime

	err := scanner.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&prefs, &user.CreatedAt, &lastLogin,
	)
	if err != nil {
		return user, err
	}

	user.PreferencesJSON = prefs.String
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}

	user.PrepareForAPI()
	return user, nil
}

const userColumns = "id, email, username, password_hash, preferences_json, created_at, last_login"

// Register creates a new user with a hashed password. Email uniqueness is
// checked before username uniqueness.
func (s *UserService) Register(email, username, password string) (models.User, error) {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&exists); err != nil {
		return models.User{}, err
	}
	if exists > 0 {
		return models.User{}, ErrEmailTaken
	}
	if err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE username = ?", username).Scan(&exists); err != nil {
		return models.User{}, err
	}
	if exists > 0 {
		return models.User{}, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
		Preferences:  map[string]interface{}{},
	}
	user.PrepareForSave()

	stmt, err := s.db.Prepare("INSERT INTO users(id, email, username, password_hash, preferences_json, created_at) VALUES(?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Email, user.Username, user.PasswordHash, user.PreferencesJSON, user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. The identifier is matched
// against email first, then username. On success the last-login timestamp is
// refreshed.
func (s *UserService) Authenticate(identifier, password string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", identifier)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		row = s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", identifier)
		user, err = scanUser(row)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec("UPDATE users SET last_login = ? WHERE id = ?", now, user.ID); err != nil {
		return models.User{}, err
	}
	user.LastLogin = &now

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}
