package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STATE_DIR", t.TempDir())
	t.Setenv("HEARTBRIDGE_BASE_URL", "https://api.example.com/")
	for _, key := range []string{"PORT", "CREDENTIAL_BACKEND", "RESEND_COOLDOWN", "RESEND_COOLDOWN_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.ResendCooldown != 30*time.Second {
		t.Fatalf("expected 30s cooldown, got %s", cfg.ResendCooldown)
	}
	if cfg.CredentialBackend != CredentialFile {
		t.Fatalf("expected file backend, got %s", cfg.CredentialBackend)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
	if filepath.Base(cfg.ProfilePath()) != "heartbridge_user_profile.json" {
		t.Fatalf("unexpected profile path %s", cfg.ProfilePath())
	}
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("STATE_DIR", t.TempDir())
	t.Setenv("RESEND_COOLDOWN_SECONDS", "5")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("OTP_TTL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ResendCooldown != 5*time.Second {
		t.Fatalf("expected 5s cooldown, got %s", cfg.ResendCooldown)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("expected 3s shutdown, got %s", cfg.ShutdownPeriod)
	}
	if cfg.OTPTTL != time.Minute {
		t.Fatalf("expected 1m otp ttl, got %s", cfg.OTPTTL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("STATE_DIR", t.TempDir())
	t.Setenv("RESEND_COOLDOWN", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid RESEND_COOLDOWN")
	}
}

func TestValidateClient(t *testing.T) {
	cfg := Config{BaseURL: "http://x", CredentialBackend: CredentialFile}
	if err := cfg.ValidateClient(); err == nil {
		t.Fatal("expected missing secret error")
	}
	cfg.CredentialSecret = "s3cret"
	if err := cfg.ValidateClient(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.CredentialBackend = CredentialRedis
	if err := cfg.ValidateClient(); err == nil {
		t.Fatal("expected missing REDIS_URL error")
	}
	cfg.CredentialBackend = "keychain"
	if err := cfg.ValidateClient(); err == nil {
		t.Fatal("expected unknown backend error")
	}
}

func TestValidateServer(t *testing.T) {
	cfg := Config{AppEnv: "production"}
	if err := cfg.ValidateServer(); err == nil {
		t.Fatal("expected JWT_SECRET error in production")
	}
	cfg.AppEnv = "development"
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("dev should not require a secret: %v", err)
	}
}
