package util

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	defaultRateLimit     = 20
	defaultRateInterval  = 1 * time.Minute
	defaultRateBlockTime = 5 * time.Minute

	defaultS3Region        = "us-east-1"
	defaultAvatarURLExpiry = 15 * time.Minute

	EnvProduction = "production"
)

var (
	ErrAccessSecretMissing  = errors.New("JWT_ACCESS_SECRET is not set")
	ErrRefreshSecretMissing = errors.New("JWT_REFRESH_SECRET is not set")
	ErrSecretsNotDistinct   = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	Production      bool
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:      envOrDefault("SERVER_ADDRESS", defaultServerAddr),
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
		Production:      IsProduction(),
	}
}

// IsProduction reports whether APP_ENV selects the production profile.
func IsProduction() bool {
	return os.Getenv("APP_ENV") == EnvProduction
}

type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// LoadTokenConfig reads the signing secrets and token lifetimes from the environment.
func LoadTokenConfig() (*TokenConfig, error) {
	access := os.Getenv("JWT_ACCESS_SECRET")
	if access == "" {
		return nil, ErrAccessSecretMissing
	}
	refresh := os.Getenv("JWT_REFRESH_SECRET")
	if refresh == "" {
		return nil, ErrRefreshSecretMissing
	}
	if access == refresh {
		return nil, ErrSecretsNotDistinct
	}

	return &TokenConfig{
		AccessSecret:  []byte(access),
		RefreshSecret: []byte(refresh),
		AccessTTL:     parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL:    parseDurationOrDefault("REFRESH_TOKEN_TTL", defaultRefreshTTL),
	}, nil
}

type RateLimiterConfig struct {
	Limit     int
	Interval  time.Duration
	BlockTime time.Duration
}

func NewRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Limit:     parseIntOrDefault("RATE_LIMIT_LIMIT", defaultRateLimit),
		Interval:  parseDurationOrDefault("RATE_LIMIT_INTERVAL", defaultRateInterval),
		BlockTime: parseDurationOrDefault("RATE_LIMIT_BLOCK_TIME", defaultRateBlockTime),
	}
}

type S3Config struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Bucket       string
	URLExpiry    time.Duration
}

func NewS3Config() *S3Config {
	return &S3Config{
		Region:       envOrDefault("S3_REGION", defaultS3Region),
		BaseEndpoint: os.Getenv("S3_BASE_ENDPOINT"),
		AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("S3_SECRET_KEY"),
		Bucket:       os.Getenv("S3_BUCKET"),
		URLExpiry:    parseDurationOrDefault("S3_URL_EXPIRY", defaultAvatarURLExpiry),
	}
}

func GetWebhookURL() string {
	return os.Getenv("WEBHOOK_URL")
}

func envOrDefault(varName, def string) string {
	if v := os.Getenv(varName); v != "" {
		return v
	}
	return def
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
