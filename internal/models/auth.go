package models

import "time"

// LoginRequest is the credential payload for session creation.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse carries the issued bearer token and its user.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RatingRequest submits a course rating.
type RatingRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

// Certificate is the public certificate lookup result.
type Certificate struct {
	Code        string    `json:"code"`
	CourseName  string    `json:"course_name"`
	StudentName string    `json:"student_name"`
	IssuedAt    time.Time `json:"issued_at"`
}

// DashboardSummary aggregates the signed-in user's progress counters.
type DashboardSummary struct {
	ActiveEnrollments    int     `json:"active_enrollments"`
	CompletedEnrollments int     `json:"completed_enrollments"`
	CompletedLessons     int     `json:"completed_lessons"`
	TotalStudyHours      float64 `json:"total_study_hours"`
}
