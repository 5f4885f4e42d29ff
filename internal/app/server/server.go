package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/http/handler"
	"github.com/linklytics/linklytics/internal/http/middleware"
	"github.com/linklytics/linklytics/internal/http/util"
)

// Dependencies bundles infrastructure and service dependencies required by
// the HTTP server.
type Dependencies struct {
	Logger    *zap.Logger
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	NATS      *nats.Conn
	JetStream nats.JetStreamContext

	LinkService      service.LinkService
	AnalyticsService service.AnalyticsService
	AuthService      service.AuthService
	Cache            *cache.LinkCache
	ClickPublisher   *service.ClickPublisher
	Signer           *util.TokenSigner

	BaseURL            string
	RateLimitPerMinute int
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS())

	auth := middleware.Auth(s.deps.Signer, s.deps.AuthService, s.deps.Logger)

	limitCfg := middleware.DefaultRateLimitConfig()
	if s.deps.RateLimitPerMinute > 0 {
		limitCfg.MaxRequests = s.deps.RateLimitPerMinute
	}
	limit := middleware.RateLimit(s.deps.Redis, limitCfg, s.deps.Logger)

	authHandler := handler.NewAuthHandler(handler.AuthDeps{
		Logger:      s.deps.Logger,
		AuthService: s.deps.AuthService,
		Signer:      s.deps.Signer,
	})
	authHandler.Register(s.app)

	apiHandler := handler.NewAPIHandler(handler.APIDeps{
		Logger:           s.deps.Logger,
		LinkService:      s.deps.LinkService,
		AnalyticsService: s.deps.AnalyticsService,
		Registrar:        s.deps.Cache,
		BaseURL:          s.deps.BaseURL,
	})
	apiHandler.Register(s.app, auth, limit)

	redirectHandler := handler.NewRedirectHandler(handler.RedirectDeps{
		Logger: s.deps.Logger,
		Links:  s.deps.Cache,
		Clicks: s.deps.ClickPublisher,
	})
	redirectHandler.Register(s.app)
}
