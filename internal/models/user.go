package models

import "time"

const (
	StudentRole = "student"
	AdminRole   = "admin"
)

// User is an auth identity. Its profile shares the id.
type User struct {
	ID           ID        `json:"id"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) Key() string {
	return u.ID.Key()
}

func (u User) Roles() []string {
	if u.Role == "" {
		return []string{StudentRole}
	}
	return []string{u.Role}
}

// CurrentUser is what callers see of the signed-in identity.
type CurrentUser struct {
	ID    ID     `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
