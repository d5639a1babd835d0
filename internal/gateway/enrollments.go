package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/learnhub-client/internal/models"
)

// FetchEnrollments lists the signed-in user's enrollments.
func (c *Client) FetchEnrollments(ctx context.Context, token string) ([]models.Enrollment, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var enrollments []models.Enrollment
	if err := c.do(ctx, "fetch_enrollments", http.MethodGet, "/enrollments", token, nil, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Enroll registers the signed-in user in a course.
func (c *Client) Enroll(ctx context.Context, token string, courseID int64) (*models.Enrollment, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	payload := map[string]int64{"course_id": courseID}
	var enrollment models.Enrollment
	if err := c.do(ctx, "enroll", http.MethodPost, "/enrollments", token, payload, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CancelEnrollment cancels an enrollment by ID.
func (c *Client) CancelEnrollment(ctx context.Context, token string, enrollmentID int64) error {
	if err := requireToken(token); err != nil {
		return err
	}
	path := fmt.Sprintf("/enrollments/%d", enrollmentID)
	return c.do(ctx, "cancel_enrollment", http.MethodDelete, path, token, nil, nil)
}

// ToggleLessonCompletion flips the completion flag for one lesson inside an
// enrollment and returns the updated enrollment.
func (c *Client) ToggleLessonCompletion(ctx context.Context, token string, enrollmentID, lessonID int64) (*models.Enrollment, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/enrollments/%d/lessons/%d", enrollmentID, lessonID)
	var enrollment models.Enrollment
	if err := c.do(ctx, "toggle_lesson", http.MethodPut, path, token, nil, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FetchDashboard retrieves the signed-in user's aggregate progress counters.
func (c *Client) FetchDashboard(ctx context.Context, token string) (*models.DashboardSummary, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var summary models.DashboardSummary
	if err := c.do(ctx, "fetch_dashboard", http.MethodGet, "/dashboard", token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
