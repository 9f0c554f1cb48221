package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/identity-federation/hub/internal/policy/api"
	"github.com/identity-federation/hub/internal/policy/audit"
	policyconfig "github.com/identity-federation/hub/internal/policy/config"
	"github.com/identity-federation/hub/internal/policy/controller"
	"github.com/identity-federation/hub/internal/policy/dispatch"
	"github.com/identity-federation/hub/internal/policy/domain"
	"github.com/identity-federation/hub/internal/policy/session"
	"github.com/identity-federation/hub/internal/policy/store"
	"github.com/identity-federation/hub/internal/shared/auth"
	"github.com/identity-federation/hub/internal/shared/config"
	"github.com/identity-federation/hub/internal/shared/database"
	"github.com/identity-federation/hub/internal/shared/events"
	"github.com/identity-federation/hub/internal/shared/ids"
	"github.com/identity-federation/hub/internal/shared/metrics"
	secmiddleware "github.com/identity-federation/hub/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	federation, err := policyconfig.Load(cfg.Policy.FederationConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load federation config: %v\n", err)
		os.Exit(1)
	}

	// Session store: postgres in production, in-memory fallback for local
	// development without a database.
	var sessionStore domain.SessionStore
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Printf("Warning: Database not available: %v\n", err)
		fmt.Println("Falling back to in-memory session store...")
		sessionStore = store.NewMemoryStore()
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		sessionStore = store.NewPostgresStore(db.Pool)
	}

	// Audit event bus (optional - policy operations survive without it)
	var eventLogger domain.EventLogger = domain.NoopEventLogger{}
	bus, err := events.NewBus(ctx, cfg.KurrentDB)
	if err != nil {
		fmt.Printf("Warning: KurrentDB not available: %v\n", err)
		fmt.Println("Running without audit event streaming...")
	} else {
		app.Bus = bus
		defer bus.Close()
		eventLogger = audit.NewLogger(bus)
		fmt.Println("KurrentDB audit bus initialized")
	}

	clock := domain.SystemClock{}
	idGenerator := ids.Generator{}

	services := &controller.Services{
		Transactions:      federation,
		IdentityProviders: federation,
		MatchingServices:  federation,
		Dispatcher:        dispatch.NewHTTPDispatcher(cfg.Policy.SamlSoapProxyURL),
		Events:            eventLogger,
		Clock:             clock,
		IDs:               idGenerator,
		Responses:         domain.NewResponseFactory(idGenerator),
		Assertions:        domain.NewAssertionRestrictions(clock, cfg.Policy.AssertionLifetime),
		MatchWaitPeriod:   cfg.Policy.MatchWaitPeriod,
	}

	repo := session.NewRepository(sessionStore, services)
	sessions := session.NewService(repo, services, cfg.Policy.SessionLength)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.RequestLogger)
	r.Use(secmiddleware.InputSanitizer)
	r.Use(secmiddleware.NewIPRateLimiter(100, 200).Middleware)
	r.Use(metrics.Middleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	// Internal API for the SAML frontend and saml-soap-proxy
	r.Route("/policy", func(r chi.Router) {
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
			r.Use(auth.RequireScopes("policy"))
		}

		policyHandler := api.NewHandler(sessions)
		r.Mount("/session", policyHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Identity Federation Hub - Policy Service")
	fmt.Println("============================================")
	fmt.Printf("Environment:      %s\n", cfg.Server.Env)
	fmt.Printf("Server:           http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:              http://localhost:%d/policy/session\n", cfg.Server.Port)
	fmt.Printf("Health:           http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("Session length:   %s\n", cfg.Policy.SessionLength)
	fmt.Printf("Match wait:       %s\n", cfg.Policy.MatchWaitPeriod)
	fmt.Printf("KurrentDB:        %s:%d\n", cfg.KurrentDB.Host, cfg.KurrentDB.Port)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Identity Federation Hub - Policy Service",
		"version": "0.1.0",
		"docs":    "/policy/session",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["kurrentdb"] = "not ready: " + err.Error()
			} else {
				checks["kurrentdb"] = "ready"
			}
		} else {
			checks["kurrentdb"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
