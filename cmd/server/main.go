package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"stratus/internal/auth"
	"stratus/internal/config"
	"stratus/internal/handler"
	"stratus/internal/httputil"
	"stratus/internal/middleware"
	"stratus/internal/repository/postgres"
	"stratus/internal/service"
	"stratus/internal/storage/onedrive"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for the host auth service
	jwtVerifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	accountRepo := postgres.NewAccountRepository(repoConfig)
	nodeRepo := postgres.NewNodeSettingsRepository(repoConfig)
	logRepo := postgres.NewNodeLogRepository(repoConfig)
	contributorRepo := postgres.NewContributorRepository(repoConfig)

	// Storage provider client and OAuth app
	client := onedrive.NewClient(cfg.ProviderAPIBaseURL, logger)
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.ProviderAuthURL,
			TokenURL: cfg.ProviderTokenURL,
			// Pin the credential placement so a failed refresh is not
			// silently re-POSTed with the alternate auth style.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// Create services
	refresher := service.NewTokenRefresher(accountRepo, oauthCfg, logger)
	nodeService := service.NewNodeService(nodeRepo, accountRepo, logRepo, refresher, client, logger)
	folderService := service.NewFolderService(accountRepo, refresher, client, logger)
	contributorService := service.NewContributorService(contributorRepo, nodeRepo, logger)

	// Create handlers
	addonHandler := handler.NewAddonHandler(nodeService, folderService, accountRepo, logger)
	contributorHandler := handler.NewContributorHandler(contributorService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Account routes
	mux.HandleFunc("GET /api/users/me/accounts", addonHandler.ListAccounts)

	// Node addon routes
	mux.HandleFunc("GET /api/nodes/{id}/stratus/config", addonHandler.GetConfig)
	mux.HandleFunc("PUT /api/nodes/{id}/stratus/config", addonHandler.SetConfig)
	mux.HandleFunc("DELETE /api/nodes/{id}/stratus/config", addonHandler.RemoveAuth)
	mux.HandleFunc("POST /api/nodes/{id}/stratus/import-auth", addonHandler.ImportAuth)
	mux.HandleFunc("GET /api/nodes/{id}/stratus/folders", addonHandler.ListFolders)
	mux.HandleFunc("GET /api/nodes/{id}/stratus/share-emails", contributorHandler.ShareEmails)

	// Contributor routes
	mux.HandleFunc("GET /api/nodes/{id}/contributors", contributorHandler.List)
	mux.HandleFunc("GET /api/nodes/{id}/contributors/abbrev", contributorHandler.Abbrev)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
