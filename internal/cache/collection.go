package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"
	"github.com/noah-isme/learnhub-client/pkg/metrics"
)

// Phase reports the in-flight fetch state of a collection, distinguishing
// a first load from a refresh of an already populated collection.
type Phase string

const (
	LoadingNone       Phase = "none"
	LoadingInitial    Phase = "initial"
	LoadingBackground Phase = "background"
)

type fetchFunc func(ctx context.Context) (interface{}, int, error)

type persistFunc func(ctx context.Context, data interface{}, fetchedAt time.Time)

// snapshot is a read-only view of a collection at a point in time. Stale
// means it was served from memory rather than fetched by the observing call.
type snapshot struct {
	data      interface{}
	stale     bool
	errMsg    string
	fetchedAt time.Time
}

// collectionState holds one independently aged collection. Entries are
// superseded wholesale on every successful fetch, never mutated in place;
// a failed fetch leaves the previous entry and its timestamp untouched.
type collectionState struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	mu        sync.RWMutex
	group     singleflight.Group
	data      interface{}
	size      int
	fetchedAt time.Time
	phase     Phase
	lastErr   string
}

func newCollectionState(name string, ttl time.Duration, now func() time.Time, m *metrics.Metrics) *collectionState {
	return &collectionState{
		name:    name,
		ttl:     ttl,
		now:     now,
		metrics: m,
		phase:   LoadingNone,
	}
}

// refresh implements the staleness policy: serve from memory while fresh and
// populated, otherwise fetch through fn with at most one fetch in flight per
// collection. All coalesced callers observe the same resulting snapshot.
func (c *collectionState) refresh(ctx context.Context, force bool, fetch fetchFunc, persist persistFunc) snapshot {
	if !force {
		c.mu.RLock()
		if c.freshLocked() {
			snap := c.snapshotLocked(true)
			c.mu.RUnlock()
			c.metrics.RecordCacheLookup(c.name, true)
			return snap
		}
		c.mu.RUnlock()
	}
	c.metrics.RecordCacheLookup(c.name, false)

	result, _, _ := c.group.Do(c.name, func() (interface{}, error) {
		// A coalesced caller may arrive after the winner already refreshed;
		// re-check before fetching. Forced refreshes always go through.
		if !force {
			c.mu.RLock()
			if c.freshLocked() {
				snap := c.snapshotLocked(true)
				c.mu.RUnlock()
				return snap, nil
			}
			c.mu.RUnlock()
		}

		c.mu.Lock()
		if c.size == 0 {
			c.phase = LoadingInitial
		} else {
			c.phase = LoadingBackground
		}
		c.mu.Unlock()

		c.metrics.RefreshStarted(c.name)
		data, size, err := fetch(ctx)
		c.metrics.RefreshFinished(c.name)

		c.mu.Lock()
		c.phase = LoadingNone
		if err != nil {
			// Failure policy: keep last-known-good data and timestamp,
			// record a readable message, hand back the stale snapshot.
			c.lastErr = appErrors.FromError(err).Error()
			snap := c.snapshotLocked(true)
			c.mu.Unlock()
			return snap, nil
		}

		c.data = data
		c.size = size
		c.fetchedAt = c.now()
		c.lastErr = ""
		snap := c.snapshotLocked(false)
		c.mu.Unlock()

		if persist != nil {
			persist(ctx, data, snap.fetchedAt)
		}
		return snap, nil
	})

	return result.(snapshot)
}

// peek returns the current snapshot without any fetch.
func (c *collectionState) peek() snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(true)
}

// seed populates an empty collection from a durable snapshot. A collection
// that already fetched is never overwritten by older persisted data.
func (c *collectionState) seed(data interface{}, size int, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fetchedAt.IsZero() {
		return
	}
	c.data = data
	c.size = size
	c.fetchedAt = fetchedAt
}

// clear resets the collection to never-fetched.
func (c *collectionState) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.size = 0
	c.fetchedAt = time.Time{}
	c.lastErr = ""
}

func (c *collectionState) loading() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

func (c *collectionState) freshLocked() bool {
	return !c.fetchedAt.IsZero() && c.size > 0 && c.now().Sub(c.fetchedAt) < c.ttl
}

func (c *collectionState) snapshotLocked(stale bool) snapshot {
	return snapshot{data: c.data, stale: stale, errMsg: c.lastErr, fetchedAt: c.fetchedAt}
}
