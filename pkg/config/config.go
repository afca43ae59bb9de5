package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache backends supported by CACHE_BACKEND.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// ErrLedgerNotConfigured is returned when the remote ledger URL or token is missing.
var ErrLedgerNotConfigured = errors.New("LEDGER_URL and LEDGER_TOKEN must be set")

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Ledger     LedgerConfig
	Enrollment EnrollmentConfig
	Events     EventsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig only carries verification material; tokens are issued elsewhere.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig selects and tunes the response cache.
type CacheConfig struct {
	Backend     string
	DefaultTTL  time.Duration
	CheckPeriod time.Duration
	KeyPrefix   string
}

// LedgerConfig points at the spreadsheet automation endpoint.
type LedgerConfig struct {
	URL           string
	Token         string
	EnrollTimeout time.Duration
	ReadTimeout   time.Duration
	MirrorWorkers int
	MirrorRetries int
	MirrorDelay   time.Duration
}

// EnrollmentConfig tunes the enrollment workflow.
type EnrollmentConfig struct {
	CodePrefix    string
	MaxSlots      int
	FlatRateSport string
	FlatRatePrice float64
}

// EventsConfig toggles publication of enrollment events to Kafka.
type EventsConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
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
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND")))
	if backend != CacheBackendRedis {
		backend = CacheBackendMemory
	}
	cfg.Cache = CacheConfig{
		Backend:     backend,
		DefaultTTL:  parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 5*time.Minute),
		CheckPeriod: parseDuration(v.GetString("CACHE_CHECK_PERIOD"), time.Minute),
		KeyPrefix:   v.GetString("CACHE_KEY_PREFIX"),
	}

	cfg.Ledger = LedgerConfig{
		URL:           strings.TrimSpace(v.GetString("LEDGER_URL")),
		Token:         v.GetString("LEDGER_TOKEN"),
		EnrollTimeout: parseDuration(v.GetString("LEDGER_ENROLL_TIMEOUT"), 30*time.Second),
		ReadTimeout:   parseDuration(v.GetString("LEDGER_READ_TIMEOUT"), 10*time.Second),
		MirrorWorkers: v.GetInt("LEDGER_MIRROR_WORKERS"),
		MirrorRetries: v.GetInt("LEDGER_MIRROR_RETRIES"),
		MirrorDelay:   parseDuration(v.GetString("LEDGER_MIRROR_RETRY_DELAY"), 5*time.Second),
	}
	if cfg.Ledger.URL == "" || cfg.Ledger.Token == "" {
		return nil, ErrLedgerNotConfigured
	}

	maxSlots := v.GetInt("ENROLLMENT_MAX_SLOTS")
	if maxSlots <= 0 {
		maxSlots = 10
	}
	cfg.Enrollment = EnrollmentConfig{
		CodePrefix:    v.GetString("ENROLLMENT_CODE_PREFIX"),
		MaxSlots:      maxSlots,
		FlatRateSport: v.GetString("ENROLLMENT_FLAT_RATE_SPORT"),
		FlatRatePrice: v.GetFloat64("ENROLLMENT_FLAT_RATE_PRICE"),
	}

	cfg.Events = EventsConfig{
		Enabled: v.GetBool("EVENTS_ENABLED"),
		Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:   v.GetString("KAFKA_TOPIC"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3002)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("CACHE_DEFAULT_TTL", "5m")
	v.SetDefault("CACHE_CHECK_PERIOD", "60s")
	v.SetDefault("CACHE_KEY_PREFIX", "academy:")

	v.SetDefault("LEDGER_URL", "")
	v.SetDefault("LEDGER_TOKEN", "")
	v.SetDefault("LEDGER_ENROLL_TIMEOUT", "30s")
	v.SetDefault("LEDGER_READ_TIMEOUT", "10s")
	v.SetDefault("LEDGER_MIRROR_WORKERS", 2)
	v.SetDefault("LEDGER_MIRROR_RETRIES", 3)
	v.SetDefault("LEDGER_MIRROR_RETRY_DELAY", "5s")

	v.SetDefault("ENROLLMENT_CODE_PREFIX", "ACAD")
	v.SetDefault("ENROLLMENT_MAX_SLOTS", 10)
	v.SetDefault("ENROLLMENT_FLAT_RATE_SPORT", "Maternal Fitness")
	v.SetDefault("ENROLLMENT_FLAT_RATE_PRICE", 60)

	v.SetDefault("EVENTS_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "academy.enrollments")
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

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
