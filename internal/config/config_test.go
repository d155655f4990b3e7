package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/checkin")
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("SESSION_TTL_HOURS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.SessionTTL != 72*time.Hour {
		t.Errorf("SessionTTL = %v, want 72h", cfg.SessionTTL)
	}
}

func TestLoadRequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DB_URL is unset")
	}
}

func TestLoadParsesOriginsAndTTL(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/checkin")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SESSION_TTL_HOURS", "24")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
		}
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/checkin")
	for _, bad := range []string{"0", "-3", "soon"} {
		t.Setenv("SESSION_TTL_HOURS", bad)
		if _, err := Load(); err == nil {
			t.Errorf("SESSION_TTL_HOURS=%q should be rejected", bad)
		}
	}
}
