package models

import "time"

type CourseStatus string

const (
	StatusInProgress CourseStatus = "in-progress"
	StatusCompleted  CourseStatus = "completed"
	// StatusStarted is a stored row that records a start and no completion.
	// It is never reported; reports resolve it to one of the statuses above.
	StatusStarted CourseStatus = "started"
)

// Valid reports whether s is a status reports may carry.
func (s CourseStatus) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// CourseProgress is keyed by (UserID, CourseID). A missing row means not started.
type CourseProgress struct {
	UserID    ID        `json:"user_id"`
	CourseID  ID        `json:"course_id"`
	Completed bool      `json:"completed"`
	StartedAt time.Time `json:"started_at"`
}

func (p CourseProgress) Key() string {
	return p.UserID.Key() + "/" + p.CourseID.Key()
}

func (p CourseProgress) Status() CourseStatus {
	if p.Completed {
		return StatusCompleted
	}
	return StatusInProgress
}

// Recorded is what the row itself says: completed, or only started.
func (p CourseProgress) Recorded() CourseStatus {
	if p.Completed {
		return StatusCompleted
	}
	return StatusStarted
}

// LessonProgress is keyed by (UserID, LessonID). A missing row and a row with
// Completed=false both mean not completed.
type LessonProgress struct {
	UserID      ID         `json:"user_id"`
	LessonID    ID         `json:"lesson_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (p LessonProgress) Key() string {
	return p.UserID.Key() + "/" + p.LessonID.Key()
}
