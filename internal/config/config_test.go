package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	base := t.TempDir()
	t.Setenv("BASE_DIR", base)
	t.Setenv("PAYMENTS_PATH", "")
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("MATCHES_PATH", "")
	t.Setenv("STATIC_DIR", "")
	t.Setenv("ADMIN_PAGE", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.LedgerBackend != BackendFile {
		t.Fatalf("backend = %q", cfg.LedgerBackend)
	}
	if cfg.MatchesPath != filepath.Join(base, "matches.json") || cfg.StaticDir != base {
		t.Fatalf("unexpected paths %+v", cfg)
	}
	if filepath.Base(cfg.PaymentsPath) != "payments.json" {
		t.Fatalf("payments path = %q", cfg.PaymentsPath)
	}
	if cfg.AdminPage != "rose.html" {
		t.Fatalf("admin page = %q", cfg.AdminPage)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("cors should default off")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BASE_DIR", t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PAYMENTS_PATH", "/data/ledger.json")
	t.Setenv("BLOCKED_IDS", " a1, ,b2 ")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
	t.Setenv("LEDGER_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.PaymentsPath != "/data/ledger.json" {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if len(cfg.BlockedIDs) != 2 || cfg.BlockedIDs[0] != "a1" || cfg.BlockedIDs[1] != "b2" {
		t.Fatalf("blocked ids = %v", cfg.BlockedIDs)
	}
	if len(cfg.CORSOrigins) != 1 {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestPostgresBackendNeedsDBSource(t *testing.T) {
	t.Setenv("BASE_DIR", t.TempDir())
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("DB_SOURCE", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DB_SOURCE")
	}

	t.Setenv("DB_SOURCE", "postgres://localhost/paygate")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LedgerBackend != BackendPostgres {
		t.Fatalf("backend = %q", cfg.LedgerBackend)
	}

	t.Setenv("LEDGER_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
