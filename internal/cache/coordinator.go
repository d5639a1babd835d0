package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learnhub-client/pkg/config"
	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"
	"github.com/noah-isme/learnhub-client/pkg/metrics"
	"github.com/noah-isme/learnhub-client/pkg/store"

	"github.com/noah-isme/learnhub-client/internal/models"
	"github.com/noah-isme/learnhub-client/internal/session"
)

// Durable key for the persisted course snapshot. Private to the coordinator.
const keyCourses = "cache:courses"

// Collection names used for instrumentation.
const (
	collectionCourses     = "courses"
	collectionEnrollments = "enrollments"
)

// Gateway is the slice of the remote gateway the coordinator consumes.
type Gateway interface {
	FetchCourses(ctx context.Context) ([]models.Course, error)
	FetchCourse(ctx context.Context, id int64) (*models.Course, error)
	FetchEnrollments(ctx context.Context, token string) ([]models.Enrollment, error)
}

type tokenSource interface {
	Token() string
}

// CourseResult is the outcome of a course refresh. Stale reports that the
// collection was served from cache instead of fetched by this call; Err is
// the stored human-readable message from the last failed fetch, empty after
// a success.
type CourseResult struct {
	Data      []models.Course
	Stale     bool
	Err       string
	FetchedAt time.Time
}

// EnrollmentResult is the outcome of an enrollment refresh, with the same
// field semantics as CourseResult.
type EnrollmentResult struct {
	Data      []models.Enrollment
	Stale     bool
	Err       string
	FetchedAt time.Time
}

// Coordinator owns the in-memory copies of the course and enrollment
// collections. Each collection ages independently, coalesces concurrent
// refreshes into one fetch, and survives fetch failures by falling back to
// its last-known-good data. Courses are additionally persisted so a cold
// start has data before the first network round-trip completes.
type Coordinator struct {
	gateway  Gateway
	sessions tokenSource
	store    store.KeyValue
	logger   *zap.Logger

	courses     *collectionState
	enrollments *collectionState
	details     *DetailCache
}

// Params groups constructor dependencies.
type Params struct {
	Gateway  Gateway
	Sessions tokenSource
	Store    store.KeyValue
	Config   config.CacheConfig
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// New constructs a Coordinator. Register Bind on the session manager and
// call Warm before first use.
func New(params Params) *Coordinator {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	cfg := params.Config
	if cfg.CourseTTL <= 0 {
		cfg.CourseTTL = 5 * time.Minute
	}
	if cfg.EnrollmentTTL <= 0 {
		cfg.EnrollmentTTL = 2 * time.Minute
	}

	return &Coordinator{
		gateway:     params.Gateway,
		sessions:    params.Sessions,
		store:       params.Store,
		logger:      logger,
		courses:     newCollectionState(collectionCourses, cfg.CourseTTL, now, params.Metrics),
		enrollments: newCollectionState(collectionEnrollments, cfg.EnrollmentTTL, now, params.Metrics),
		details:     NewDetailCache(params.Gateway, cfg.CourseDetailTTL, logger, now),
	}
}

// Details exposes the per-course detail cache.
func (co *Coordinator) Details() *DetailCache {
	return co.details
}

// Bind registers the coordinator on the session manager so enrollment data
// tracks the session lifecycle.
func (co *Coordinator) Bind(sessions *session.Manager) {
	sessions.OnTransition(co.onSessionTransition)
}

// Warm pre-populates the in-memory course collection from the durable
// snapshot. Failures are recoverable: a corrupt snapshot is dropped and the
// next refresh repopulates it.
func (co *Coordinator) Warm(ctx context.Context) {
	if co.store == nil {
		return
	}

	raw, err := co.store.Get(ctx, keyCourses)
	if err != nil {
		if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			co.logger.Warn("failed to read persisted courses", zap.Error(err))
		}
		return
	}

	var snapshot persistedCourses
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		co.logger.Warn("dropping corrupt course snapshot", zap.Error(err))
		if err := co.store.Remove(ctx, keyCourses); err != nil {
			co.logger.Warn("failed to remove corrupt course snapshot", zap.Error(err))
		}
		return
	}

	co.courses.seed(snapshot.Data, len(snapshot.Data), time.UnixMilli(snapshot.Timestamp))
	co.logger.Debug("warmed course cache",
		zap.Int("count", len(snapshot.Data)),
		zap.Time("fetched_at", time.UnixMilli(snapshot.Timestamp)))
}

// RefreshCourses returns the course collection, fetching through the
// gateway when forced, expired, or empty. Concurrent callers share one
// fetch.
func (co *Coordinator) RefreshCourses(ctx context.Context, force bool) CourseResult {
	snap := co.courses.refresh(ctx, force, func(ctx context.Context) (interface{}, int, error) {
		list, err := co.gateway.FetchCourses(ctx)
		return list, len(list), err
	}, co.persistCourses)

	data, _ := snap.data.([]models.Course)
	return CourseResult{Data: data, Stale: snap.stale, Err: snap.errMsg, FetchedAt: snap.fetchedAt}
}

// RefreshEnrollments returns the enrollment collection. Without a session
// token the gateway is never invoked and the current (normally empty)
// collection is returned as-is.
func (co *Coordinator) RefreshEnrollments(ctx context.Context, force bool) EnrollmentResult {
	token := co.sessions.Token()
	if token == "" {
		snap := co.enrollments.peek()
		return EnrollmentResult{Data: toEnrollments(snap.data), Stale: true, Err: snap.errMsg, FetchedAt: snap.fetchedAt}
	}

	snap := co.enrollments.refresh(ctx, force, func(ctx context.Context) (interface{}, int, error) {
		list, err := co.gateway.FetchEnrollments(ctx, token)
		return list, len(list), err
	}, nil)

	return EnrollmentResult{Data: toEnrollments(snap.data), Stale: snap.stale, Err: snap.errMsg, FetchedAt: snap.fetchedAt}
}

// Courses returns the current in-memory course collection without
// triggering a fetch.
func (co *Coordinator) Courses() CourseResult {
	snap := co.courses.peek()
	data, _ := snap.data.([]models.Course)
	return CourseResult{Data: data, Stale: true, Err: snap.errMsg, FetchedAt: snap.fetchedAt}
}

// Enrollments returns the current in-memory enrollment collection without
// triggering a fetch.
func (co *Coordinator) Enrollments() EnrollmentResult {
	snap := co.enrollments.peek()
	return EnrollmentResult{Data: toEnrollments(snap.data), Stale: true, Err: snap.errMsg, FetchedAt: snap.fetchedAt}
}

// CoursesLoading reports the in-flight phase of the course collection.
func (co *Coordinator) CoursesLoading() Phase {
	return co.courses.loading()
}

// EnrollmentsLoading reports the in-flight phase of the enrollment
// collection.
func (co *Coordinator) EnrollmentsLoading() Phase {
	return co.enrollments.loading()
}

func (co *Coordinator) onSessionTransition(ctx context.Context, state session.State, _ *models.User) {
	switch state {
	case session.StateAnonymous:
		// Enrollment data is meaningless without a session; reset to
		// never-fetched regardless of TTL.
		co.enrollments.clear()
		co.details.Clear()
		co.logger.Debug("cleared enrollment cache on anonymous transition")
	case session.StateAuthenticated:
		co.RefreshEnrollments(ctx, true)
	}
}

// persistedCourses is the durable snapshot layout: the collection plus its
// capture timestamp in unix milliseconds.
type persistedCourses struct {
	Data      []models.Course `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func (co *Coordinator) persistCourses(ctx context.Context, data interface{}, fetchedAt time.Time) {
	if co.store == nil {
		return
	}

	courses, _ := data.([]models.Course)
	raw, err := json.Marshal(persistedCourses{Data: courses, Timestamp: fetchedAt.UnixMilli()})
	if err != nil {
		co.logger.Warn("failed to encode course snapshot", zap.Error(err))
		return
	}

	if err := co.store.Set(ctx, keyCourses, string(raw)); err != nil {
		co.logger.Warn("failed to persist course snapshot", zap.Error(err))
	}
}

func toEnrollments(data interface{}) []models.Enrollment {
	list, _ := data.([]models.Enrollment)
	return list
}
