package rest

import (
	"net/http"

	"warrantboard/application/session"
	"warrantboard/interfaces/http/rest/handlers"
	"warrantboard/interfaces/http/rest/middleware"
	"warrantboard/pkg/auth"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the optional pieces of the HTTP stack.
type RouterConfig struct {
	// Validator authenticates bearer tokens. Nil falls back to the
	// X-Player-ID header, which is only wired in development.
	Validator *auth.JWTValidator
	// Limiter rate limits per player. Nil disables rate limiting.
	Limiter auth.RateLimiter
	// Metrics records HTTP metrics and serves /metrics when non-nil.
	Metrics        MetricsHandler
	EnableCORS     bool
	AllowedOrigins []string
	AdminRole      string
}

// MetricsHandler is the HTTP face of the metrics collector.
type MetricsHandler interface {
	middleware.HTTPRecorder
	Handler() http.Handler
}

// Router creates and configures the HTTP router
type Router struct {
	manager *session.Manager
	config  RouterConfig
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(manager *session.Manager, config RouterConfig, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AdminRole == "" {
		config.AdminRole = "admin"
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"http://localhost:3000"}
	}
	return &Router{manager: manager, config: config, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	if rt.config.Metrics != nil {
		router.Use(middleware.Metrics(rt.config.Metrics))
	}
	router.Use(middleware.Logger(rt.logger))

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.PlayerHeader},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.config.Metrics != nil {
		router.Handle("/metrics", rt.config.Metrics.Handler())
	}

	boardHandler := handlers.NewBoardHandler(rt.manager, rt.logger)
	pageHandler := handlers.NewPageHandler(rt.manager, rt.logger)
	itemHandler := handlers.NewItemHandler(rt.manager, rt.logger)
	statsHandler := handlers.NewStatsHandler(rt.manager, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authenticate())

		r.Get("/board", boardHandler.GetBoard)
		r.Post("/board/rebuild", boardHandler.RebuildBoard)

		r.Get("/state", pageHandler.GetState)
		r.Post("/save", pageHandler.Save)
		r.Route("/pages", func(r chi.Router) {
			r.Post("/", pageHandler.CreatePage)
			r.Post("/{index}/activate", pageHandler.SwitchPage)
		})
		r.Get("/nodes/{nodeID}/unlock", pageHandler.CheckUnlock)
		r.Post("/nodes/{nodeID}/unlock", pageHandler.Unlock)
		r.With(middleware.RequireRole(rt.config.AdminRole)).Post("/points", pageHandler.GrantPoints)

		r.Get("/blueprints", itemHandler.ListBlueprints)
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.ListItems)
			r.Post("/roll", itemHandler.Roll)
			r.Post("/fuse", itemHandler.Fuse)
		})
		r.Put("/sockets/{nodeID}", itemHandler.Assign)
		r.Delete("/sockets/{nodeID}", itemHandler.Unassign)

		r.Get("/modifiers", statsHandler.Modifiers)
		r.Get("/summary", statsHandler.Summary)
	})

	return router
}

func (rt *Router) authenticate() func(http.Handler) http.Handler {
	if rt.config.Validator == nil {
		rt.logger.Warn("No JWT validator configured, trusting " + middleware.PlayerHeader)
		return middleware.DevAuthenticate(rt.config.Limiter, rt.logger)
	}
	return middleware.Authenticate(rt.config.Validator, rt.config.Limiter, rt.logger)
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once a board definition and catalog are loaded.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.manager == nil || rt.manager.Database() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
