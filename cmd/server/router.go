package main

import (
	"net/http"

	"github.com/benvon/smart-auth/internal/config"
	"github.com/benvon/smart-auth/internal/handlers"
	"github.com/benvon/smart-auth/internal/middleware"
	"github.com/benvon/smart-auth/internal/services/auth"
	"github.com/benvon/smart-auth/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// routerDeps are the collaborators the HTTP surface is built from
type routerDeps struct {
	cfg          *config.Config
	service      *auth.Service
	health       *handlers.HealthChecker
	openAPI      *handlers.OpenAPIHandler
	limiterStore limiter.Store
	logger       *zap.Logger
}

// newRouter mounts every route and middleware.
// gorilla/mux runs middleware in registration order: the first Use is the outermost wrapper.
func newRouter(d routerDeps) (*mux.Router, error) {
	r := mux.NewRouter()

	if d.cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.Recover(d.logger))
	r.Use(middleware.SecurityHeaders(d.cfg.EnableHSTS))
	r.Use(middleware.CORS(d.cfg.FrontendURL, d.logger))
	r.Use(middleware.Logging(d.logger))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))

	r.HandleFunc("/healthz", d.health.HealthCheck).Methods("GET")
	d.openAPI.RegisterRoutes(r)

	authHandler := handlers.NewAuthHandler(d.service, d.logger)

	// Unauthenticated routes carry the rate limit; they are the credential-guessing surface
	rateLimit, err := middleware.RateLimit(d.limiterStore, d.cfg.RateLimit, d.logger)
	if err != nil {
		return nil, err
	}
	publicRouter := r.PathPrefix("/api/v1/auth").Subrouter()
	publicRouter.Use(rateLimit)
	authHandler.RegisterPublicRoutes(publicRouter)

	protectedRouter := r.PathPrefix("/api/v1/auth").Subrouter()
	protectedRouter.Use(middleware.Authenticate(d.service, d.logger))
	authHandler.RegisterProtectedRoutes(protectedRouter)

	// Preflight requests match no route otherwise; CORS answers them before this handler runs
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
