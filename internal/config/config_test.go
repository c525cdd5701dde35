package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("GIN_MODE", "")
	t.Setenv("DEVELOPMENT_MODE", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "slipstreak.db" {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("unexpected gin mode: %s", cfg.GinMode)
	}
	if cfg.DevelopmentMode {
		t.Fatal("expected development mode to default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("DATABASE_PATH", "data/slipstreak.db")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("DEVELOPMENT_MODE", "true")

	cfg := Load()

	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "data/slipstreak.db" {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath)
	}
	if !cfg.DevelopmentMode {
		t.Fatal("expected development mode enabled")
	}
}

func TestParseBoolVariants(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", " yes ", "On"}
	for _, raw := range truthy {
		if !parseBool(raw) {
			t.Fatalf("expected %q to parse as true", raw)
		}
	}

	falsy := []string{"", "0", "false", "off", "随便"}
	for _, raw := range falsy {
		if parseBool(raw) {
			t.Fatalf("expected %q to parse as false", raw)
		}
	}
}
