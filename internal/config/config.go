package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr       = ":3000"
	defaultSessionTTL = 8 * time.Hour
)

// Config holds process-wide settings. It is built once at startup and
// treated as immutable afterwards.
type Config struct {
	DatabaseURL   string
	JWTSecret     string
	EncryptionKey string
	HTTPAddr      string
	LogLevel      string
	SessionTTL    time.Duration
	CORSOrigins   []string
	Google        GoogleConfig
}

// GoogleConfig identifies the OAuth client registered with Google.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &Config{
		DatabaseURL:   get("DATABASE_URL"),
		JWTSecret:     get("JWT_SECRET"),
		EncryptionKey: getenv("ENCRYPTION_KEY"),
		HTTPAddr:      get("HTTP_ADDR"),
		LogLevel:      get("LOG_LEVEL"),
		SessionTTL:    defaultSessionTTL,
		Google: GoogleConfig{
			ClientID:     get("GOOGLE_CLIENT_ID"),
			ClientSecret: get("GOOGLE_CLIENT_SECRET"),
			RedirectURI:  get("GOOGLE_REDIRECT_URI"),
		},
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultAddr
	}
	for _, o := range strings.Split(get("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var errs []error
	if raw := get("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
		case ttl <= 0:
			errs = append(errs, errors.New("SESSION_TTL must be positive"))
		default:
			cfg.SessionTTL = ttl
		}
	}

	required := []struct {
		key, val string
	}{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"JWT_SECRET", cfg.JWTSecret},
		{"ENCRYPTION_KEY", cfg.EncryptionKey},
		{"GOOGLE_CLIENT_ID", cfg.Google.ClientID},
		{"GOOGLE_CLIENT_SECRET", cfg.Google.ClientSecret},
		{"GOOGLE_REDIRECT_URI", cfg.Google.RedirectURI},
	}
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("%s environment variable is required", r.key))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabaseOnly loads just the settings needed by the operator CLI.
func DatabaseOnly() (string, error) {
	_ = godotenv.Load()
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		return "", errors.New("DATABASE_URL environment variable is required")
	}
	return dsn, nil
}
