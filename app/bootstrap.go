package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/adithyakrishnapn/moviereview/internal/auth"
	"github.com/adithyakrishnapn/moviereview/internal/catalog"
	"github.com/adithyakrishnapn/moviereview/internal/db"
	"github.com/adithyakrishnapn/moviereview/internal/media"
	"github.com/adithyakrishnapn/moviereview/internal/observability"
	"github.com/adithyakrishnapn/moviereview/internal/review"
	"github.com/adithyakrishnapn/moviereview/internal/user"
	"github.com/adithyakrishnapn/moviereview/internal/watchlist"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// Build wires the whole application from the environment. Secrets are read
// here, once, and handed to the components that need them.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	omdbKey, err := mustEnv("OMDB_API_KEY")
	if err != nil {
		return nil, err
	}
	omdbURL := envOrDefault("OMDB_API_URL", "https://www.omdbapi.com/")
	clientURL := envOrDefault("CLIENT_URL", "http://localhost:5173")

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	issuer := auth.NewIssuer(jwtSecret)

	// pictures are optional; without Cloudinary credentials signup still
	// works, just without uploads
	var uploader user.PictureUploader
	if cloudinaryURL := strings.TrimSpace(os.Getenv("CLOUDINARY_URL")); cloudinaryURL != "" {
		cloudinaryClient, err := media.NewCloudinary(cloudinaryURL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		uploader = cloudinaryClient
	}

	userRepo := user.NewRepository(database)
	userService := user.NewService(userRepo, issuer)
	userHandler := user.NewHandler(userService, issuer, uploader)

	reviewHandler := review.NewHandler(review.NewRepository(database), userRepo)
	watchlistHandler := watchlist.NewHandler(watchlist.NewRepository(database))

	catalogClient, err := catalog.NewClient(omdbURL, omdbKey)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init catalog client: %w", err)
	}
	catalogHandler := catalog.NewHandler(catalogClient)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler(database))

	mux.HandleFunc("GET /movies", catalogHandler.Search)
	mux.HandleFunc("GET /movies/{id}", catalogHandler.Detail)

	mux.HandleFunc("POST /users/signup", userHandler.Signup)
	mux.HandleFunc("POST /users/login", userHandler.Login)
	mux.HandleFunc("POST /users/logout", userHandler.Logout)
	mux.HandleFunc("GET /users/me", userHandler.Me)
	mux.HandleFunc("GET /users/find/{id}", userHandler.Find)
	mux.HandleFunc("PUT /users/{id}", userHandler.Update)

	mux.Handle("POST /reviews", auth.RequireSession(issuer, http.HandlerFunc(reviewHandler.Create)))
	mux.HandleFunc("GET /reviews/rev/{userId}", reviewHandler.ListByUser)
	mux.HandleFunc("GET /reviews/{movieId}", reviewHandler.ListByMovie)
	mux.Handle("DELETE /reviews/{reviewId}", auth.RequireSession(issuer, http.HandlerFunc(reviewHandler.Delete)))

	mux.HandleFunc("POST /watchlist", watchlistHandler.Add)
	mux.HandleFunc("GET /watchlist/{userId}", watchlistHandler.List)
	mux.HandleFunc("DELETE /watchlist/{userId}/{movieId}", watchlistHandler.Remove)

	handler := corsMiddleware(clientURL,
		observability.RecoverMiddleware(logger,
			observability.RequestLoggingMiddleware(logger, mux)))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
