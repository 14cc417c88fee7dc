package config

import (
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func fullEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":         "postgres://localhost/tradedesk",
		"JWT_SECRET":           "jwt",
		"ENCRYPTION_KEY":       "enc",
		"GOOGLE_CLIENT_ID":     "id",
		"GOOGLE_CLIENT_SECRET": "secret",
		"GOOGLE_REDIRECT_URI":  "http://localhost:3000/oauth2callback",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(fullEnv()))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 8*time.Hour {
		t.Fatalf("unexpected ttl: %v", cfg.SessionTTL)
	}
	if cfg.Google.RedirectURI != "http://localhost:3000/oauth2callback" {
		t.Fatalf("unexpected redirect: %s", cfg.Google.RedirectURI)
	}
}

func TestFromEnvReportsAllMissing(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{}))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "ENCRYPTION_KEY", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URI"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error: %v", key, err)
		}
	}
}

func TestFromEnvSessionTTL(t *testing.T) {
	env := fullEnv()
	env["SESSION_TTL"] = "30m"
	cfg, err := FromEnv(envMap(env))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("unexpected ttl: %v", cfg.SessionTTL)
	}

	env["SESSION_TTL"] = "-1h"
	if _, err := FromEnv(envMap(env)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestEncryptionKeyIsNotTrimmed(t *testing.T) {
	env := fullEnv()
	env["ENCRYPTION_KEY"] = " padded "
	cfg, err := FromEnv(envMap(env))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.EncryptionKey != " padded " {
		t.Fatalf("encryption key was altered: %q", cfg.EncryptionKey)
	}
}

func TestFromEnvCORSOrigins(t *testing.T) {
	env := fullEnv()
	env["CORS_ORIGINS"] = " https://desk.example.com , ,* "
	cfg, err := FromEnv(envMap(env))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://desk.example.com" || cfg.CORSOrigins[1] != "*" {
		t.Fatalf("unexpected origins: %q", cfg.CORSOrigins)
	}

	cfg, _ = FromEnv(envMap(fullEnv()))
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("expected no origins by default, got %q", cfg.CORSOrigins)
	}
}
