package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/punchamoorthee/paygate/internal/api"
	"github.com/punchamoorthee/paygate/internal/catalog"
	"github.com/punchamoorthee/paygate/internal/config"
	"github.com/punchamoorthee/paygate/internal/service"
	"github.com/punchamoorthee/paygate/internal/store"
	"github.com/rs/cors"
)

func main() {
	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		errorLog.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		errorLog.Fatal(err)
	}

	matches, err := catalog.Load(cfg.MatchesPath)
	if err != nil {
		errorLog.Printf("Catalog unavailable, serving with no entries: %v", err)
	}
	infoLog.Printf("Loaded %d catalog entries from %s", matches.Len(), cfg.MatchesPath)

	var ledger store.Ledger
	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := store.NewPostgresStore(ctx, cfg.DBSource)
		if err != nil {
			cancel()
			errorLog.Fatalf("Unable to connect to database: %v", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			cancel()
			errorLog.Fatal(err)
		}
		cancel()
		defer pg.Close()
		ledger = pg
		infoLog.Printf("Using postgres ledger")
	default:
		ledger = store.NewFileStore(cfg.PaymentsPath)
		infoLog.Printf("Using file ledger at %s", cfg.PaymentsPath)
	}

	// Initialize Layers
	svc := service.NewRedemptionService(ledger, matches, cfg.BlockedIDs)
	handler := api.NewHandler(svc, errorLog)
	static := api.NewStaticHandler(cfg.StaticDir, cfg.AdminPage, cfg.PaymentsPath, cfg.MatchesPath)

	var root http.Handler = api.Middleware(infoLog, errorLog).Then(api.NewRouter(handler, static))
	if len(cfg.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		})
		root = c.Handler(root)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		ErrorLog:     errorLog,
		Handler:      root,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	infoLog.Printf("Server starting on :%s (%s)", cfg.Port, cfg.Env)
	if err := srv.ListenAndServe(); err != nil {
		errorLog.Fatal(err)
	}
}
