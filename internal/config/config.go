package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "CongoVault"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultRateLimit       = 120
	defaultDBMaxConns      = 8
	defaultRedisTimeout    = 2 * time.Second
	defaultDBLockTimeout   = 5 * time.Second
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName            string
	Env                string
	Port               string
	LogLevel           string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	AdminAddress       string
	CustodyAddress     string
	PlatformAddress    string
	JWTSecret          string
	AddressMinBytes    int
	AddressMaxBytes    int
	RateLimitPerMinute int
	ShutdownPeriod     time.Duration
	IdempotencyTTL     time.Duration
	DBMaxConns         int
	DBLockTimeout      time.Duration
	RedisTimeout       time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		Env:             strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		NATSURL:         os.Getenv("NATS_URL"),
		AdminAddress:    os.Getenv("ADMIN_ADDRESS"),
		CustodyAddress:  os.Getenv("CUSTODY_ADDRESS"),
		PlatformAddress: os.Getenv("PLATFORM_ADDRESS"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
	}

	var err error
	if cfg.AddressMinBytes, err = getInt("ADDRESS_MIN_BYTES", 0); err != nil {
		return Config{}, err
	}
	if cfg.AddressMaxBytes, err = getInt("ADDRESS_MAX_BYTES", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", defaultRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConns, err = getInt("DB_MAX_CONNS", defaultDBMaxConns); err != nil {
		return Config{}, err
	}
	if cfg.DBLockTimeout, err = getDuration("DB_LOCK_TIMEOUT_SECONDS", "DB_LOCK_TIMEOUT", defaultDBLockTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RedisTimeout, err = getDuration("REDIS_TIMEOUT_SECONDS", "REDIS_TIMEOUT", defaultRedisTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = getDuration(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}

	if cfg.AdminAddress == "" {
		return Config{}, fmt.Errorf("ADMIN_ADDRESS must be set")
	}
	if cfg.CustodyAddress == "" {
		return Config{}, fmt.Errorf("CUSTODY_ADDRESS must be set")
	}
	if cfg.PlatformAddress == "" {
		cfg.PlatformAddress = cfg.CustodyAddress
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.Env)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.Env)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// FundsAttester returns the caller trusted to declare native funds already
// moved into custody: PLATFORM_ADDRESS, or the custody address when unset.
func (c Config) FundsAttester() string {
	if c.PlatformAddress != "" {
		return c.PlatformAddress
	}
	return c.CustodyAddress
}

// IsDev reports whether the service runs in a development or test environment,
// where the in-memory store and a missing Redis are tolerated.
func (c Config) IsDev() bool {
	switch c.Env {
	case "", "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getDuration reads whole seconds from secondsKey, falling back to a Go
// duration string in durationKey.
func getDuration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}
