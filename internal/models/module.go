package models

import "time"

type Module struct {
	ID          ID        `json:"id"`
	CourseID    ID        `json:"course_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Ordinal     int       `json:"ordinal"`
	CreatedAt   time.Time `json:"created_at"`
	Lessons     []Lesson  `json:"lessons"`
}

func (m Module) Key() string {
	return m.ID.Key()
}

type NewModule struct {
	CourseID    ID      `json:"course_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Ordinal     int     `json:"ordinal"`
}

type ModuleUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Ordinal     *int    `json:"ordinal"`
}

func (u ModuleUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Ordinal == nil
}

// ModuleTest marks a quiz attached to a module. Questions live elsewhere.
type ModuleTest struct {
	ID          ID      `json:"id"`
	ModuleID    ID      `json:"module_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (t ModuleTest) Key() string {
	return t.ID.Key()
}

type NewModuleTest struct {
	ModuleID    ID      `json:"module_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}
