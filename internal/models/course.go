package models

import (
	"regexp"
	"strings"
	"time"
)

type Course struct {
	ID          ID        `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Modules     []Module  `json:"modules,omitempty"`
}

func (c Course) Key() string {
	return c.ID.Key()
}

type NewCourse struct {
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

// CourseUpdate is a partial update; nil fields are left as they are.
type CourseUpdate struct {
	Title       *string `json:"title"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

func (u CourseUpdate) Empty() bool {
	return u.Title == nil && u.Slug == nil && u.Description == nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into a single dash and trims dashes from both ends.
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}
