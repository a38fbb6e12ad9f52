package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName           = "HeartBridge"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultBaseURL           = "http://localhost:8080"
	defaultCredentialBackend = "file"
	defaultCredentialService = "com.heartbridge.app"
	defaultCredentialAccount = "authToken"
	defaultShutdownDelay     = 10 * time.Second
	defaultResendCooldown    = 30 * time.Second
	defaultTokenTTL          = 30 * 24 * time.Hour
	defaultOTPTTL            = 10 * time.Minute
	defaultStartLoginPerMin  = 5
	shutdownSecondsEnvVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar   = "SHUTDOWN_TIMEOUT"
	resendSecondsEnvVar      = "RESEND_COOLDOWN_SECONDS"
	resendDurationEnvVar     = "RESEND_COOLDOWN"
)

// Credential backends understood by the client.
const (
	CredentialFile   = "file"
	CredentialRedis  = "redis"
	CredentialMemory = "memory"
)

// Config captures runtime configuration for both the client and the dev API,
// loaded from environment variables (and an optional .env file).
type Config struct {
	AppName  string
	AppEnv   string
	LogLevel string

	// Client.
	BaseURL           string
	CredentialBackend string
	CredentialService string
	CredentialAccount string
	CredentialSecret  string
	StateDir          string
	ResendCooldown    time.Duration

	// Dev API.
	Port             string
	DatabaseURL      string
	RedisURL         string
	JWTSecret        string
	TokenTTL         time.Duration
	OTPTTL           time.Duration
	StartLoginPerMin int
	ShutdownPeriod   time.Duration
}

// Load reads configuration values from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		BaseURL:           strings.TrimRight(getEnv("HEARTBRIDGE_BASE_URL", defaultBaseURL), "/"),
		CredentialBackend: strings.ToLower(getEnv("CREDENTIAL_BACKEND", defaultCredentialBackend)),
		CredentialService: getEnv("CREDENTIAL_SERVICE", defaultCredentialService),
		CredentialAccount: getEnv("CREDENTIAL_ACCOUNT", defaultCredentialAccount),
		CredentialSecret:  os.Getenv("CREDENTIAL_SECRET"),
		StateDir:          os.Getenv("STATE_DIR"),
		ResendCooldown:    defaultResendCooldown,
		Port:              getEnv("PORT", defaultPort),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          defaultTokenTTL,
		OTPTTL:            defaultOTPTTL,
		StartLoginPerMin:  defaultStartLoginPerMin,
		ShutdownPeriod:    defaultShutdownDelay,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.ResendCooldown, err = durationFromEnv(resendSecondsEnvVar, resendDurationEnvVar, cfg.ResendCooldown); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationFromEnv("", "TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationFromEnv("", "OTP_TTL", cfg.OTPTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("START_LOGIN_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid START_LOGIN_PER_MINUTE: %w", err)
		}
		cfg.StartLoginPerMin = n
	}

	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".heartbridge")
	}

	return cfg, nil
}

// ValidateClient checks the settings the command-line client depends on.
func (c Config) ValidateClient() error {
	if c.BaseURL == "" {
		return fmt.Errorf("HEARTBRIDGE_BASE_URL must be set")
	}
	switch c.CredentialBackend {
	case CredentialFile:
		if c.CredentialSecret == "" {
			return fmt.Errorf("CREDENTIAL_SECRET must be set for the file credential backend")
		}
	case CredentialRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set for the redis credential backend")
		}
	case CredentialMemory:
	default:
		return fmt.Errorf("unknown CREDENTIAL_BACKEND %q", c.CredentialBackend)
	}
	return nil
}

// ValidateServer checks the settings the dev API depends on. Outside of
// development a signing secret is mandatory.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", c.AppEnv)
	}
	return nil
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// ProfilePath is the location of the persisted profile slot.
func (c Config) ProfilePath() string {
	return filepath.Join(c.StateDir, "heartbridge_user_profile.json")
}

// CredentialPath is the location of the encrypted credential slot.
func (c Config) CredentialPath() string {
	return filepath.Join(c.StateDir, c.CredentialAccount+".cred")
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
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

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
