package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAuthor = "author"
	RolePublic = "public"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAuthor || role == RolePublic
}

// User models an authenticated actor in the system. Email is unique and
// matched case-insensitively.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
