package config

import (
	"testing"
	"time"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when JWT_SECRET is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AuthPort != "8001" || cfg.TelemetryPort != "8003" || cfg.AIPort != "8002" {
		t.Errorf("unexpected default ports: %s/%s/%s", cfg.AuthPort, cfg.TelemetryPort, cfg.AIPort)
	}
	if cfg.ElectricityRate != 0.12 {
		t.Errorf("expected default rate 0.12, got %v", cfg.ElectricityRate)
	}
	if cfg.JWTDuration != 30*time.Minute {
		t.Errorf("expected default JWT duration 30m, got %v", cfg.JWTDuration)
	}
	if cfg.AuthRateLimit != 5 || cfg.AuthRateWindow != 15*time.Minute {
		t.Errorf("unexpected auth rate defaults: %d/%v", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ELECTRICITY_RATE", "0.30")
	t.Setenv("AI_RATE_LIMIT", "25")
	t.Setenv("JWT_DURATION", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ElectricityRate != 0.30 {
		t.Errorf("expected rate 0.30, got %v", cfg.ElectricityRate)
	}
	if cfg.AIRateLimit != 25 {
		t.Errorf("expected AI rate limit 25, got %d", cfg.AIRateLimit)
	}
	if cfg.JWTDuration != 2*time.Hour {
		t.Errorf("expected JWT duration 2h, got %v", cfg.JWTDuration)
	}
}
