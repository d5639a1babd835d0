package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends supported for durable key-value persistence.
const (
	StoreBackendSQLite = "sqlite"
	StoreBackendRedis  = "redis"
)

type Config struct {
	Env string

	API     APIConfig
	Cache   CacheConfig
	Store   StoreConfig
	Redis   RedisConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// APIConfig locates the remote platform API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CacheConfig tunes per-collection staleness windows.
type CacheConfig struct {
	CourseTTL       time.Duration
	EnrollmentTTL   time.Duration
	CourseDetailTTL time.Duration
}

// StoreConfig selects and locates the durable key-value backend.
type StoreConfig struct {
	Backend string
	Path    string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// An explicit config file that simply is not there is fine; env
		// variables and defaults cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 10*time.Second),
	}

	cfg.Cache = CacheConfig{
		CourseTTL:       parseDuration(v.GetString("COURSE_CACHE_TTL"), 5*time.Minute),
		EnrollmentTTL:   parseDuration(v.GetString("ENROLLMENT_CACHE_TTL"), 2*time.Minute),
		CourseDetailTTL: parseDuration(v.GetString("COURSE_DETAIL_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Store = StoreConfig{
		Backend: v.GetString("STORE_BACKEND"),
		Path:    v.GetString("STORE_PATH"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "http://localhost:3333")
	v.SetDefault("API_TIMEOUT", "10s")

	v.SetDefault("COURSE_CACHE_TTL", "5m")
	v.SetDefault("ENROLLMENT_CACHE_TTL", "2m")
	v.SetDefault("COURSE_DETAIL_CACHE_TTL", "5m")

	v.SetDefault("STORE_BACKEND", StoreBackendSQLite)
	v.SetDefault("STORE_PATH", "./learnhub.db")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_METRICS", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
