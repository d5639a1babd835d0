package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-client/pkg/config"
	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"

	"github.com/noah-isme/learnhub-client/internal/models"
)

func newTestClient(baseURL string) *Client {
	return New(config.APIConfig{BaseURL: baseURL, Timeout: 2 * time.Second}, nil, nil, nil)
}

func TestFetchCoursesDecodesAndSetsHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		require.Equal(t, "/courses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.Course{{ID: 1, Name: "Go Basics"}})
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	courses, err := client.FetchCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Go Basics", courses[0].Name)

	assert.Empty(t, gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotAccept)
}

func TestFetchEnrollmentsSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]models.Enrollment{{ID: 5, Status: models.EnrollmentStatusActive}})
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	enrollments, err := client.FetchEnrollments(context.Background(), "tok-123")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, models.EnrollmentStatusActive, enrollments[0].Status)
}

func TestFetchEnrollmentsRequiresToken(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	_, err := client.FetchEnrollments(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRequestMisconfigured))
	assert.Zero(t, requests)
}

func TestServerRejectionCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	_, err := client.FetchCourses(context.Background())
	require.Error(t, err)

	e := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrServerRejected.Code, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Contains(t, e.Body, "boom")
}

func TestNoResponseIsNetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchCourses(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNetworkUnavailable))
}

func TestLoginUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	_, err := client.Login(context.Background(), "ana@example.com", "badpass")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sessions", r.URL.Path)

		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana@example.com", req.Email)

		_ = json.NewEncoder(w).Encode(models.LoginResponse{
			Token: "issued",
			User:  models.User{ID: 2, Name: "Ana"},
		})
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	resp, err := client.Login(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "issued", resp.Token)
	assert.Equal(t, int64(2), resp.User.ID)
}

func TestLoginValidatesPayloadLocally(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	_, err := client.Login(context.Background(), "not-an-email", "secret1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, requests)
}

func TestSubmitRatingValidatesScore(t *testing.T) {
	client := newTestClient("http://localhost:0")
	err := client.SubmitRating(context.Background(), "tok", 1, models.RatingRequest{Score: 9})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestToggleLessonCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/enrollments/3/lessons/12", r.URL.Path)
		completed := true
		_ = json.NewEncoder(w).Encode(models.Enrollment{
			ID:       3,
			Status:   models.EnrollmentStatusActive,
			Progress: []models.LessonProgress{{LessonID: 12, Completed: completed}},
		})
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	enrollment, err := client.ToggleLessonCompletion(context.Background(), "tok", 3, 12)
	require.NoError(t, err)
	require.Len(t, enrollment.Progress, 1)
	assert.True(t, enrollment.Progress[0].Completed)
}

func TestFetchCertificatePublicLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/certificates/ABC-123", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(models.Certificate{Code: "ABC-123", CourseName: "Go Basics"})
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	cert, err := client.FetchCertificate(context.Background(), "ABC-123")
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", cert.CourseName)
}
