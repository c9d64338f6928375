// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

const (
	SourceDatabase = "database"
	SourceFiles    = "files"

	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Mongo       MongoConfig
	Blog        BlogConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
	Throttle    ThrottleConfig
	Notify      NotifyConfig
}

type ServerConfig struct {
	Port    string
	SiteURL string
	// TrustedProxyHops is how many proxies in front of the service append
	// to X-Forwarded-For. Zero takes the first entry as sent.
	TrustedProxyHops int
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

type MongoConfig struct {
	URI             string
	Database        string
	BlogCollection  string
	LeadsCollection string
}

// Enabled reports whether a MongoDB deployment is configured.
func (c MongoConfig) Enabled() bool { return c.URI != "" }

type BlogConfig struct {
	ContentDir    string
	PrimarySource string
	Policy        string
}

type StorageConfig struct {
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimiterConfig struct {
	Actions       domain.RateLimitConfig
	SweepInterval time.Duration
}

type ThrottleConfig struct {
	RPS   float64
	Burst int
}

// Enabled is false when THROTTLE_RPS is zero or negative.
func (c ThrottleConfig) Enabled() bool { return c.RPS > 0 }

// NotifyConfig configures lead notification emails.
type NotifyConfig struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	From     string
	To       []string
}

func (c NotifyConfig) Enabled() bool { return c.SMTPHost != "" && len(c.To) > 0 }

func Load() (Config, error) {
	_ = godotenv.Load()

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	blog, err := buildBlogConfig()
	if err != nil {
		return Config{}, err
	}

	storageType := getEnv("STORAGE_TYPE", StorageMemory)
	if storageType != StorageMemory && storageType != StorageRedis {
		return Config{}, fmt.Errorf("invalid STORAGE_TYPE %q: want %s or %s", storageType, StorageMemory, StorageRedis)
	}

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	throttle, err := buildThrottleConfig()
	if err != nil {
		return Config{}, err
	}

	notify, err := buildNotifyConfig()
	if err != nil {
		return Config{}, err
	}

	logFormat := getEnv("LOG_FORMAT", "json")
	if logFormat != "json" && logFormat != "text" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", logFormat)
	}

	proxyHops, err := strconv.Atoi(getEnv("TRUSTED_PROXY_HOPS", "0"))
	if err != nil || proxyHops < 0 {
		return Config{}, fmt.Errorf("invalid TRUSTED_PROXY_HOPS %q: want a non-negative integer", os.Getenv("TRUSTED_PROXY_HOPS"))
	}

	return Config{
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			SiteURL:          strings.TrimRight(getEnv("SITE_URL", "https://avnmusicstudio.com"), "/"),
			TrustedProxyHops: proxyHops,
		},
		Log: LogConfig{Level: level, Format: logFormat},
		Mongo: MongoConfig{
			URI:             os.Getenv("MONGODB_URI"),
			Database:        getEnv("MONGODB_DB_NAME", "avn_studio_db"),
			BlogCollection:  getEnv("BLOG_COLLECTION", "blogposts"),
			LeadsCollection: getEnv("LEADS_COLLECTION", "leads"),
		},
		Blog: blog,
		Storage: StorageConfig{
			Type:  storageType,
			Redis: redisConfig,
		},
		RateLimiter: rateLimiterConfig,
		Throttle:    throttle,
		Notify:      notify,
	}, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func buildBlogConfig() (BlogConfig, error) {
	primary := getEnv("BLOG_PRIMARY_SOURCE", SourceDatabase)
	if primary != SourceDatabase && primary != SourceFiles {
		return BlogConfig{}, fmt.Errorf("invalid BLOG_PRIMARY_SOURCE %q: want %s or %s", primary, SourceDatabase, SourceFiles)
	}

	return BlogConfig{
		ContentDir:    getEnv("BLOG_CONTENT_DIR", "content/blog"),
		PrimarySource: primary,
		Policy:        getEnv("BLOG_POLICY", "fallback"),
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	actions, err := parseActions(os.Getenv("RATE_LIMIT_ACTIONS"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_ACTIONS: %w", err)
	}

	sweep, err := time.ParseDuration(getEnv("RATE_LIMIT_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_INTERVAL: %w", err)
	}
	if sweep <= 0 {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_SWEEP_INTERVAL: must be positive")
	}

	return RateLimiterConfig{Actions: actions, SweepInterval: sweep}, nil
}

// parseActions reads ACTION:LIMIT:WINDOW entries separated by commas, such as
// "contact:5:1h,newsletter:10:24h". Listed actions override the
// defaults; unlisted defaults are kept.
func parseActions(raw string) (domain.RateLimitConfig, error) {
	actions := domain.DefaultRateLimitConfig()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return actions, nil
	}

	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("rate limit action must follow ACTION:LIMIT:WINDOW: %s", item)
		}

		action := strings.TrimSpace(parts[0])
		if action == "" {
			return nil, fmt.Errorf("rate limit action name is empty: %s", item)
		}
		limit, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid limit for action %s: %w", action, err)
		}
		window, err := time.ParseDuration(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid window for action %s: %w", action, err)
		}

		actions[action] = domain.ActionPolicy{Limit: limit, Window: window}
	}

	if err := actions.Validate(); err != nil {
		return nil, err
	}
	return actions, nil
}

func buildThrottleConfig() (ThrottleConfig, error) {
	rps, err := strconv.ParseFloat(getEnv("THROTTLE_RPS", "5"), 64)
	if err != nil {
		return ThrottleConfig{}, fmt.Errorf("invalid THROTTLE_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("THROTTLE_BURST", "20"))
	if err != nil {
		return ThrottleConfig{}, fmt.Errorf("invalid THROTTLE_BURST: %w", err)
	}
	return ThrottleConfig{RPS: rps, Burst: burst}, nil
}

func buildNotifyConfig() (NotifyConfig, error) {
	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return NotifyConfig{}, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	var to []string
	for _, addr := range strings.Split(os.Getenv("LEAD_NOTIFY_TO"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}

	return NotifyConfig{
		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: port,
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: os.Getenv("SMTP_PASS"),
		From:     getEnv("LEAD_NOTIFY_FROM", "no-reply@avnmusicstudio.com"),
		To:       to,
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
