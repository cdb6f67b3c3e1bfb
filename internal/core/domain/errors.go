package domain

import "errors"

// Error taxonomy. Store and service layers wrap these with context; the API
// boundary translates them to HTTP status codes exactly once.
var (
	ErrPostNotFound       = errors.New("post not found")
	ErrRevisionNotFound   = errors.New("revision not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrSlugConflict       = errors.New("slug already exists")
	ErrInvalidAuthor      = errors.New("author does not exist")
	ErrInvalidSchedule    = errors.New("invalid schedule")
	ErrValidation         = errors.New("validation failed")
	ErrContention         = errors.New("write contention, retry")
	ErrTimeout            = errors.New("operation timed out")
)
