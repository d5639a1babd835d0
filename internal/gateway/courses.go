package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"

	"github.com/noah-isme/learnhub-client/internal/models"
)

// FetchCourses lists the public catalog. No token required.
func (c *Client) FetchCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := c.do(ctx, "fetch_courses", http.MethodGet, "/courses", "", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// FetchCourse retrieves a single course with its modules and lessons. No
// token required.
func (c *Client) FetchCourse(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	path := fmt.Sprintf("/courses/%d", id)
	if err := c.do(ctx, "fetch_course", http.MethodGet, path, "", nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// SubmitRating posts a 1-5 score with an optional comment for the course.
func (c *Client) SubmitRating(ctx context.Context, token string, courseID int64, req models.RatingRequest) error {
	if err := requireToken(token); err != nil {
		return err
	}
	if err := c.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}
	path := fmt.Sprintf("/courses/%d/ratings", courseID)
	return c.do(ctx, "submit_rating", http.MethodPost, path, token, req, nil)
}

// FetchCertificate resolves a public certificate by its verification code.
// No token required.
func (c *Client) FetchCertificate(ctx context.Context, code string) (*models.Certificate, error) {
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrRequestMisconfigured, "missing certificate code")
	}
	var cert models.Certificate
	path := "/certificates/" + url.PathEscape(code)
	if err := c.do(ctx, "fetch_certificate", http.MethodGet, path, "", nil, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}
