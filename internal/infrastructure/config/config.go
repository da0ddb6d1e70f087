package config

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// JWTSecret signs bearer tokens. An empty value produces a startup
	// warning, never a silent insecure default.
	JWTSecret string `env:"JWT_SECRET"`
	// WebhookSecret authenticates inbound collaborator callbacks.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	TokenTTL        time.Duration `env:"TOKEN_TTL,         default=24h"`
	SlugCacheTTL    time.Duration `env:"SLUG_CACHE_TTL,    default=30s"`
	IdentityTTL     time.Duration `env:"IDENTITY_CACHE_TTL, default=60s"`
	UploadSlots     int64         `env:"UPLOAD_SLOTS,      default=5"`
	ActivityCap     int           `env:"ACTIVITY_CAPACITY, default=2000"`
	CRMSyncEndpoint string        `env:"CRM_SYNC_ENDPOINT"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=ops_platform"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig and
// warns about missing secrets.
func Load(logger zerolog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}

	if cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET is not set; issued tokens are unverifiable across restarts")
	}
	if cfg.WebhookSecret == "" {
		logger.Warn().Msg("WEBHOOK_SECRET is not set; inbound collaborator callbacks will be rejected")
	}

	return &cfg
}
