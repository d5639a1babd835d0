package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/learnhub-client/internal/models"
)

type courseFetcher interface {
	FetchCourse(ctx context.Context, id int64) (*models.Course, error)
}

type detailEntry struct {
	course    models.Course
	fetchedAt time.Time
}

// DetailCache holds per-course detail payloads (modules and lessons) with
// their own TTL. It is an owned object with an explicit lifecycle: built
// with the coordinator, cleared on logout. Concurrent lookups for the same
// course share one fetch.
type DetailCache struct {
	fetcher courseFetcher
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	group   singleflight.Group
	entries map[int64]detailEntry
}

// NewDetailCache constructs an empty detail cache.
func NewDetailCache(fetcher courseFetcher, ttl time.Duration, logger *zap.Logger, now func() time.Time) *DetailCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &DetailCache{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		now:     now,
		entries: make(map[int64]detailEntry),
	}
}

// Get returns the course detail, fetching when absent or expired. Stale
// reports that an expired entry was served because the fetch failed; err is
// non-nil only when the fetch failed and no prior entry exists.
func (d *DetailCache) Get(ctx context.Context, id int64) (*models.Course, bool, error) {
	d.mu.RLock()
	if entry, ok := d.entries[id]; ok && d.now().Sub(entry.fetchedAt) < d.ttl {
		course := entry.course
		d.mu.RUnlock()
		return &course, false, nil
	}
	d.mu.RUnlock()

	type lookup struct {
		course models.Course
		stale  bool
	}

	result, err, _ := d.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		d.mu.RLock()
		if entry, ok := d.entries[id]; ok && d.now().Sub(entry.fetchedAt) < d.ttl {
			d.mu.RUnlock()
			return lookup{course: entry.course}, nil
		}
		d.mu.RUnlock()

		course, err := d.fetcher.FetchCourse(ctx, id)
		if err != nil {
			d.mu.RLock()
			entry, ok := d.entries[id]
			d.mu.RUnlock()
			if ok {
				d.logger.Debug("serving stale course detail after fetch failure",
					zap.Int64("course_id", id), zap.Error(err))
				return lookup{course: entry.course, stale: true}, nil
			}
			return nil, err
		}

		d.mu.Lock()
		d.entries[id] = detailEntry{course: *course, fetchedAt: d.now()}
		d.mu.Unlock()
		return lookup{course: *course}, nil
	})
	if err != nil {
		return nil, false, err
	}

	l := result.(lookup)
	course := l.course
	return &course, l.stale, nil
}

// Invalidate drops the entry for one course.
func (d *DetailCache) Invalidate(id int64) {
	d.mu.Lock()
	delete(d.entries, id)
	d.mu.Unlock()
}

// Clear drops every entry. Called on logout.
func (d *DetailCache) Clear() {
	d.mu.Lock()
	d.entries = make(map[int64]detailEntry)
	d.mu.Unlock()
}

// Len reports the number of cached entries.
func (d *DetailCache) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
