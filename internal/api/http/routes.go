package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/fofgrade/internal/auth/middleware"
	"github.com/mind-engage/fofgrade/internal/rbac"
)

type RouterDeps struct {
	Runs        RunStore
	SyncStatus  SyncStatusStore
	Syncer      RunSyncer // nil disables passback
	Auth        *auth.AuthService
	Accounts    []auth.Account
	CORSOrigins []string
}

// NewRouter mounts the operator API.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Accounts...))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("runs:view")).Get("/runs", ListRunsHandler(d.Runs))
		pr.With(rbac.Require("runs:view")).Get("/runs/{runID}", GetRunHandler(d.Runs))
		if d.SyncStatus != nil {
			pr.With(rbac.Require("runs:view")).Get("/runs/{runID}/sync", SyncStatusHandler(d.SyncStatus))
		}
		pr.With(rbac.Require("runs:sync")).Post("/runs/{runID}/sync", SyncRunHandler(d.Syncer))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
