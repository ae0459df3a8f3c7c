package services

import "errors"

// Sentinel errors returned by the store-access services. Handlers map these
// 1:1 to HTTP status codes with errors.Is.
var (
	// Validation failures, rejected before any store access.
	ErrBadListType         = errors.New("invalid list type: must be one of todo, watch, later")
	ErrTaskCountOutOfRange = errors.New("a daily card must contain between 1 and 5 tasks")

	// Conflicts discovered at the store.
	ErrEmailTaken        = errors.New("email already registered")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrCardExistsForDate = errors.New("a daily card already exists for this date")

	// Not-found for owner-scoped lookups.
	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")
	ErrCardNotFound = errors.New("daily card not found")

	// Authentication failures.
	ErrInvalidCredentials = errors.New("incorrect email/username or password")
)
