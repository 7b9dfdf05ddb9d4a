package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	querybus "github.com/thismakesmehappy/NewApiTest-sub000/application/queries/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest/handlers"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest/middleware"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/api"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// Options are the HTTP-facing settings taken from config
type Options struct {
	EnableCORS         bool
	AllowedOrigins     []string
	RateLimitPerMinute int
	EnableMetrics      bool
}

// Dependencies is everything the router wires into handlers
type Dependencies struct {
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Teams         *services.TeamService
	Keys          *services.DeveloperKeyService
	Principals    *services.PrincipalService
	Authenticator *middleware.Authenticator
	Errors        *pkgerrors.ErrorHandler
	Collector     *observability.Collector
	Health        ports.HealthChecker
	// IPLimiter runs before authentication, UserLimiter after it. Either may
	// be nil.
	IPLimiter   auth.RateLimiter
	UserLimiter auth.RateLimiter
	Logger      *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	deps Dependencies
	opts Options
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies, opts Options) *Router {
	return &Router{deps: deps, opts: opts}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	d := rt.deps
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestIDHeader)
	router.Use(middleware.Logger(d.Logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(d.Errors.Middleware)
	if rt.opts.EnableMetrics {
		router.Use(middleware.Metrics(d.Collector))
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.APIKeyHeader},
			ExposedHeaders:   []string{"X-Request-ID", "Location"},
			AllowCredentials: !containsWildcard(rt.opts.AllowedOrigins),
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		d.Errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		d.Errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Get("/swagger.json", api.SwaggerHandler())

	itemHandler := handlers.NewItemHandler(d.CommandBus, d.QueryBus, d.Errors, d.Logger)
	teamHandler := handlers.NewTeamHandler(d.Teams, d.Errors, d.Logger)
	keyHandler := handlers.NewKeyHandler(d.Keys, d.Errors, d.Logger)
	userHandler := handlers.NewUserHandler(d.Principals, d.Errors, d.Logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("api"), d.Errors, d.Logger))
		r.Use(middleware.RateLimit(d.IPLimiter, middleware.ByIP, rt.opts.RateLimitPerMinute, d.Errors, d.Logger))
		r.Use(d.Authenticator.Middleware)
		r.Use(middleware.RateLimit(d.UserLimiter, middleware.ByPrincipal, rt.opts.RateLimitPerMinute, d.Errors, d.Logger))

		r.Get("/me", userHandler.Me)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.ListItems)
			r.Post("/", itemHandler.CreateItem)
			r.Get("/{itemID}", itemHandler.GetItem)
			r.Put("/{itemID}", itemHandler.UpdateItem)
			r.Delete("/{itemID}", itemHandler.DeleteItem)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.ListTeams)
			r.Post("/", teamHandler.CreateTeam)
			r.Get("/{teamID}", teamHandler.GetTeam)
			r.Post("/{teamID}/members", teamHandler.AddMember)
			r.Delete("/{teamID}/members/{userID}", teamHandler.RemoveMember)
			r.Put("/{teamID}/admins/{userID}", teamHandler.PromoteAdmin)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Get("/", keyHandler.ListKeys)
			r.Post("/", keyHandler.CreateKey)
			r.Delete("/{keyID}", keyHandler.RevokeKey)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(d.Errors, valueobjects.RoleAdmin))
			r.Put("/users/{userID}/role", userHandler.SetRole)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck pings the item store
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.deps.Health.Ping(ctx); err != nil {
			rt.deps.Logger.Warn("Readiness check failed", zap.Error(err))
			rt.deps.Errors.HandleStatus(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
