package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"

	defaultPort       = "8000"
	defaultPersistDir = "/home"
	defaultAdminPage  = "rose.html"
	defaultBlockedIDs = "2025A5PS1503P"
)

type Config struct {
	Port          string
	Env           string
	BaseDir       string
	StaticDir     string
	AdminPage     string
	PaymentsPath  string
	MatchesPath   string
	BlockedIDs    []string
	LedgerBackend string
	DBSource      string
	CORSOrigins   []string
}

// Load reads the environment. The ledger falls back to /home when that
// directory exists (App Service persistent storage), else to BASE_DIR.
func Load() (*Config, error) {
	baseDir := os.Getenv("BASE_DIR")
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		baseDir = wd
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = os.Getenv("SERVER_PORT")
	}
	if port == "" {
		port = defaultPort
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	paymentsPath := os.Getenv("PAYMENTS_PATH")
	if paymentsPath == "" {
		persistDir := baseDir
		if info, err := os.Stat(defaultPersistDir); err == nil && info.IsDir() {
			persistDir = defaultPersistDir
		}
		paymentsPath = filepath.Join(persistDir, "payments.json")
	}

	matchesPath := os.Getenv("MATCHES_PATH")
	if matchesPath == "" {
		matchesPath = filepath.Join(baseDir, "matches.json")
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = baseDir
	}

	adminPage := os.Getenv("ADMIN_PAGE")
	if adminPage == "" {
		adminPage = defaultAdminPage
	}

	blocked, ok := os.LookupEnv("BLOCKED_IDS")
	if !ok {
		blocked = defaultBlockedIDs
	}

	backend := strings.ToLower(os.Getenv("LEDGER_BACKEND"))
	if backend == "" {
		backend = BackendFile
	}
	dbSource := os.Getenv("DB_SOURCE")
	switch backend {
	case BackendFile:
	case BackendPostgres:
		if dbSource == "" {
			return nil, fmt.Errorf("DB_SOURCE environment variable is required for the postgres ledger")
		}
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", backend)
	}

	return &Config{
		Port:          port,
		Env:           env,
		BaseDir:       baseDir,
		StaticDir:     staticDir,
		AdminPage:     adminPage,
		PaymentsPath:  paymentsPath,
		MatchesPath:   matchesPath,
		BlockedIDs:    splitList(blocked),
		LedgerBackend: backend,
		DBSource:      dbSource,
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
	}, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
