package models

import (
	"encoding/json"
	"strings"
	"time"
)

type LessonType string

const (
	LessonTypeVideo LessonType = "video"
	LessonTypeText  LessonType = "text"
)

type Lesson struct {
	ID              ID        `json:"id"`
	ModuleID        ID        `json:"module_id"`
	Title           string    `json:"title"`
	Slug            *string   `json:"slug"`
	Ordinal         int       `json:"ordinal"`
	Content         *string   `json:"content"`
	VideoURL        *string   `json:"video_url"`
	DurationSeconds *int      `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

func (l Lesson) Key() string {
	return l.ID.Key()
}

func (l Lesson) Type() LessonType {
	if l.VideoURL != nil && strings.TrimSpace(*l.VideoURL) != "" {
		return LessonTypeVideo
	}
	return LessonTypeText
}

// DurationMinutes rounds up to whole minutes with a floor of one. The second
// value is false when no duration is stored.
func (l Lesson) DurationMinutes() (int, bool) {
	if l.DurationSeconds == nil {
		return 0, false
	}
	s := *l.DurationSeconds
	minutes := (s + 59) / 60
	if minutes < 1 {
		minutes = 1
	}
	return minutes, true
}

// MarshalJSON adds the derived fields to the stored ones.
func (l Lesson) MarshalJSON() ([]byte, error) {
	type stored Lesson
	out := struct {
		stored
		Type            LessonType `json:"type"`
		DurationMinutes *int       `json:"duration_minutes"`
	}{stored: stored(l), Type: l.Type()}
	if m, ok := l.DurationMinutes(); ok {
		out.DurationMinutes = &m
	}
	return json.Marshal(out)
}

type NewLesson struct {
	ModuleID        ID      `json:"module_id"`
	Title           string  `json:"title"`
	Slug            *string `json:"slug"`
	Ordinal         int     `json:"ordinal"`
	Content         *string `json:"content"`
	VideoURL        *string `json:"video_url"`
	DurationSeconds *int    `json:"duration_seconds"`
}

type LessonUpdate struct {
	Title           *string `json:"title"`
	Slug            *string `json:"slug"`
	Ordinal         *int    `json:"ordinal"`
	Content         *string `json:"content"`
	VideoURL        *string `json:"video_url"`
	DurationSeconds *int    `json:"duration_seconds"`
}

func (u LessonUpdate) Empty() bool {
	return u.Title == nil && u.Slug == nil && u.Ordinal == nil && u.Content == nil &&
		u.VideoURL == nil && u.DurationSeconds == nil
}

type ResourceType string

const (
	ResourceWebsite ResourceType = "website"
	ResourceYouTube ResourceType = "youtube"
)

func (t ResourceType) Valid() bool {
	return t == ResourceWebsite || t == ResourceYouTube
}

type LessonResource struct {
	ID           ID            `json:"id"`
	LessonID     ID            `json:"lesson_id"`
	Title        string        `json:"title"`
	URL          *string       `json:"url"`
	ResourceType *ResourceType `json:"resource_type"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (r LessonResource) Key() string {
	return r.ID.Key()
}

type NewLessonResource struct {
	LessonID     ID            `json:"lesson_id"`
	Title        string        `json:"title"`
	URL          *string       `json:"url"`
	ResourceType *ResourceType `json:"resource_type"`
}

type LessonResourceUpdate struct {
	Title        *string       `json:"title"`
	URL          *string       `json:"url"`
	ResourceType *ResourceType `json:"resource_type"`
}

func (u LessonResourceUpdate) Empty() bool {
	return u.Title == nil && u.URL == nil && u.ResourceType == nil
}
