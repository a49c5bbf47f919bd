package models

import (
	"strings"
	"time"
)

// Profile is a student. Its id is the auth identity id.
type Profile struct {
	ID          ID        `json:"id"`
	DisplayName *string   `json:"display_name"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	Email       *string   `json:"email"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p Profile) Key() string {
	return p.ID.Key()
}

// Name prefers display_name, then "first last", then a placeholder.
func (p Profile) Name() string {
	if p.DisplayName != nil && strings.TrimSpace(*p.DisplayName) != "" {
		return *p.DisplayName
	}
	parts := make([]string, 0, 2)
	for _, s := range []*string{p.FirstName, p.LastName} {
		if s != nil && strings.TrimSpace(*s) != "" {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return "(No name)"
}
