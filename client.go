// Package learnhub assembles the offline-first client core for the course
// platform: remote gateway, session state, and the collection cache
// coordinator, wired from configuration.
package learnhub

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learnhub-client/internal/cache"
	"github.com/noah-isme/learnhub-client/internal/gateway"
	"github.com/noah-isme/learnhub-client/internal/models"
	"github.com/noah-isme/learnhub-client/internal/session"
	"github.com/noah-isme/learnhub-client/pkg/config"
	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"
	"github.com/noah-isme/learnhub-client/pkg/logger"
	"github.com/noah-isme/learnhub-client/pkg/metrics"
	"github.com/noah-isme/learnhub-client/pkg/store"
)

// App is the assembled client core handed to a front-end shell.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    store.KeyValue
	gateway  *gateway.Client
	sessions *session.Manager
	cache    *cache.Coordinator
	metrics  *metrics.Metrics
}

// New loads configuration and assembles the client core. The returned App
// has already warmed the course cache and resolved the stored session, so
// screens have data to render immediately.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := store.Open(cfg, logr)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	gw := gateway.New(cfg.API, validator.New(), logr, m)
	sessions := session.NewManager(gw, kv, logr)

	coordinator := cache.New(cache.Params{
		Gateway:  gw,
		Sessions: sessions,
		Store:    kv,
		Config:   cfg.Cache,
		Logger:   logr,
		Metrics:  m,
	})
	coordinator.Bind(sessions)
	coordinator.Warm(ctx)

	sessions.Restore(ctx)

	return &App{
		cfg:      cfg,
		logger:   logr,
		store:    kv,
		gateway:  gw,
		sessions: sessions,
		cache:    coordinator,
		metrics:  m,
	}, nil
}

// Sessions exposes the session manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Cache exposes the collection cache coordinator.
func (a *App) Cache() *cache.Coordinator {
	return a.cache
}

// Metrics exposes the Prometheus registry holder, nil when disabled.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// RefreshCourses returns the course collection through the coordinator.
func (a *App) RefreshCourses(ctx context.Context, force bool) cache.CourseResult {
	return a.cache.RefreshCourses(ctx, force)
}

// RefreshEnrollments returns the enrollment collection through the
// coordinator.
func (a *App) RefreshEnrollments(ctx context.Context, force bool) cache.EnrollmentResult {
	return a.cache.RefreshEnrollments(ctx, force)
}

// CourseDetail returns one course with modules and lessons, served from the
// detail cache.
func (a *App) CourseDetail(ctx context.Context, id int64) (*models.Course, bool, error) {
	return a.cache.Details().Get(ctx, id)
}

// Enroll registers the current user in a course and forces an enrollment
// refresh so the cached collection reflects the change.
func (a *App) Enroll(ctx context.Context, courseID int64) (*models.Enrollment, error) {
	enrollment, err := a.gateway.Enroll(ctx, a.sessions.Token(), courseID)
	if err != nil {
		return nil, err
	}
	a.cache.RefreshEnrollments(ctx, true)
	return enrollment, nil
}

// CancelEnrollment cancels an enrollment and forces a refresh.
func (a *App) CancelEnrollment(ctx context.Context, enrollmentID int64) error {
	if err := a.gateway.CancelEnrollment(ctx, a.sessions.Token(), enrollmentID); err != nil {
		return err
	}
	a.cache.RefreshEnrollments(ctx, true)
	return nil
}

// ToggleLessonCompletion flips one lesson's completion flag and forces a
// refresh so progress views stay consistent.
func (a *App) ToggleLessonCompletion(ctx context.Context, enrollmentID, lessonID int64) (*models.Enrollment, error) {
	enrollment, err := a.gateway.ToggleLessonCompletion(ctx, a.sessions.Token(), enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}
	a.cache.RefreshEnrollments(ctx, true)
	return enrollment, nil
}

// SubmitRating posts a course rating and invalidates the cached detail so
// the next lookup reflects the new average.
func (a *App) SubmitRating(ctx context.Context, courseID int64, score int, comment string) error {
	req := models.RatingRequest{Score: score, Comment: comment}
	if err := a.gateway.SubmitRating(ctx, a.sessions.Token(), courseID, req); err != nil {
		return err
	}
	a.cache.Details().Invalidate(courseID)
	return nil
}

// FetchCertificate resolves a public certificate by code. Uncached; lookups
// are rare and always user-initiated.
func (a *App) FetchCertificate(ctx context.Context, code string) (*models.Certificate, error) {
	return a.gateway.FetchCertificate(ctx, code)
}

// FetchDashboard retrieves the aggregate progress counters for the signed-in
// user.
func (a *App) FetchDashboard(ctx context.Context) (*models.DashboardSummary, error) {
	return a.gateway.FetchDashboard(ctx, a.sessions.Token())
}

// SaveProfileImage stores the signed-in user's avatar in the local
// single-row-per-user table. Requires the SQLite backend.
func (a *App) SaveProfileImage(ctx context.Context, data []byte) error {
	avatars, ok := a.store.(store.AvatarStore)
	if !ok {
		return appErrors.Clone(appErrors.ErrRequestMisconfigured, "configured store does not support profile images")
	}
	user := a.sessions.User()
	if user == nil {
		return appErrors.Clone(appErrors.ErrNoSession, "")
	}
	return avatars.SaveAvatar(ctx, user.ID, data)
}

// LoadProfileImage returns the locally stored avatar for the signed-in user.
func (a *App) LoadProfileImage(ctx context.Context) ([]byte, error) {
	avatars, ok := a.store.(store.AvatarStore)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrRequestMisconfigured, "configured store does not support profile images")
	}
	user := a.sessions.User()
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrNoSession, "")
	}
	return avatars.LoadAvatar(ctx, user.ID)
}

// Close releases the durable store and flushes the logger.
func (a *App) Close() error {
	_ = a.logger.Sync()
	return a.store.Close()
}
