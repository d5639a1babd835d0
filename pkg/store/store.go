package store

import "context"

// KeyValue is the durable key-value contract shared by the session
// credentials and the persisted course cache. Each key is read and written
// independently; no transactional guarantee across keys is provided or
// assumed by consumers.
type KeyValue interface {
	// Get returns the stored value, or ErrCacheMiss when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// AvatarStore persists a single profile image per user. Writes are rare and
// user-scoped, so plain synchronous CRUD suffices.
type AvatarStore interface {
	SaveAvatar(ctx context.Context, userID int64, data []byte) error
	// LoadAvatar returns the stored image, or ErrCacheMiss when none exists.
	LoadAvatar(ctx context.Context, userID int64) ([]byte, error)
	DeleteAvatar(ctx context.Context, userID int64) error
}
