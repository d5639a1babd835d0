package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment captures a user's registration in a course. Status carries the
// backend-provided value, which is authoritative.
type Enrollment struct {
	ID          int64            `json:"id"`
	Status      EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time        `json:"enrolled_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Course      Course           `json:"course"`
	Progress    []LessonProgress `json:"progress"`
}

// LessonProgress is a per-lesson completion record, kept in lesson order.
type LessonProgress struct {
	LessonID    int64      `json:"lesson_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DerivedStatus recomputes a status from progress records. It is a legacy
// view used by one screen and disagrees with Status when the backend has
// cancelled the enrollment or marked it completed with outstanding lessons.
// Status remains the source of truth; do not substitute this for it.
func (e Enrollment) DerivedStatus() EnrollmentStatus {
	if len(e.Progress) == 0 {
		return EnrollmentStatusActive
	}
	for _, p := range e.Progress {
		if !p.Completed {
			return EnrollmentStatusActive
		}
	}
	return EnrollmentStatusCompleted
}

// CompletedLessons counts progress records marked complete.
func (e Enrollment) CompletedLessons() int {
	count := 0
	for _, p := range e.Progress {
		if p.Completed {
			count++
		}
	}
	return count
}
