package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Timeline     TimelineConfig
	Visit        VisitConfig
	Notification NotificationConfig
	Worker       WorkerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	Timezone              string
	Location              *time.Location
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	// ConnectAttempts is how many times startup tries to reach the
	// database before giving up.
	ConnectAttempts int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer token verification parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// TimelineConfig bounds what a single note may carry.
type TimelineConfig struct {
	MaxAdminImages    int
	MaxCustomerImages int
}

// VisitConfig tunes visit scheduling side effects.
type VisitConfig struct {
	// AuditUnchanged publishes an audit event when an administrator
	// re-submits the visit instant already assigned.
	AuditUnchanged bool
}

// NotificationConfig holds notification endpoints. Email goes to the
// operations mailbox in EmailTo; with no SMTPHost it is only logged.
type NotificationConfig struct {
	EmailFrom    string
	EmailTo      []string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	WebhookURL   string
	// QueueSize bounds the events waiting for delivery; further events are
	// dropped with a warning.
	QueueSize int
}

// WorkerConfig schedules background jobs.
type WorkerConfig struct {
	// DigestIntervalMinutes is how often the visit calendar digest is
	// rebuilt; zero disables it.
	DigestIntervalMinutes int
	DigestTTLMinutes      int
}

// DigestInterval returns the digest period, or zero when disabled.
func (w WorkerConfig) DigestInterval() time.Duration {
	if w.DigestIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(w.DigestIntervalMinutes) * time.Minute
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	timezone := getEnv("APP_TIMEZONE", "Asia/Kolkata")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "service-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			Timezone:              timezone,
			Location:              location,
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectAttempts: getEnvAsInt("POSTGRES_CONNECT_ATTEMPTS", 3),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Timeline: TimelineConfig{
			MaxAdminImages:    getEnvAsInt("TIMELINE_MAX_ADMIN_IMAGES", 3),
			MaxCustomerImages: getEnvAsInt("TIMELINE_MAX_CUSTOMER_IMAGES", 5),
		},
		Visit: VisitConfig{
			AuditUnchanged: getEnvAsBool("VISIT_AUDIT_UNCHANGED", false),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			EmailTo:      getEnvAsList("NOTIFY_EMAIL_TO"),
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
			QueueSize:    getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
		Worker: WorkerConfig{
			DigestIntervalMinutes: getEnvAsInt("WORKER_DIGEST_INTERVAL_MINUTES", 15),
			DigestTTLMinutes:      getEnvAsInt("WORKER_DIGEST_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
