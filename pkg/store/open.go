package store

import (
	"go.uber.org/zap"

	"github.com/noah-isme/learnhub-client/pkg/config"
)

// Open constructs the durable backend selected in configuration. SQLite is
// the default.
func Open(cfg *config.Config, logger *zap.Logger) (KeyValue, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		return NewRedis(cfg.Redis, logger)
	default:
		return NewSQLite(cfg.Store.Path, logger)
	}
}
