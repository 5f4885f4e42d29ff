package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/linklytics/linklytics/config"
	appcache "github.com/linklytics/linklytics/internal/app/cache"
	appmodel "github.com/linklytics/linklytics/internal/app/model"
	apprepository "github.com/linklytics/linklytics/internal/app/repository"
	appserver "github.com/linklytics/linklytics/internal/app/server"
	appservice "github.com/linklytics/linklytics/internal/app/service"
	httputil "github.com/linklytics/linklytics/internal/http/util"
	infraGeoIP "github.com/linklytics/linklytics/internal/infra/geoip"
	"github.com/linklytics/linklytics/internal/infra/logger"
	infraNATS "github.com/linklytics/linklytics/internal/infra/nats"
	infraPostgres "github.com/linklytics/linklytics/internal/infra/postgres"
	infraPrometheus "github.com/linklytics/linklytics/internal/infra/prometheus"
	infraRedis "github.com/linklytics/linklytics/internal/infra/redis"
	"go.uber.org/zap"
)

const cacheRefreshInterval = 5 * time.Minute

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("postgres_user", cfg.Postgres.User),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
		zap.String("base_url", cfg.Shortener.BaseURL),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Account{}, &appmodel.Link{}, &appmodel.ClickEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	geoResolver, err := infraGeoIP.Open(cfg.GeoIP.DBPath, log)
	if err != nil {
		log.Fatal("Failed to open GeoIP database", zap.Error(err))
	}
	defer geoResolver.Close()

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	accountRepo := apprepository.NewAccountRepository(gormDB)
	clickRepo := apprepository.NewClickEventRepository(gormDB)
	analyticsRepo := apprepository.NewAnalyticsRepository(pool)

	linkCache := appcache.New(redisClient, linkRepo, durationOr(cfg.Cache.LinkTTL, time.Hour), log)
	if err := linkCache.Warm(ctx); err != nil {
		log.Warn("Alias cache warm-up failed, serving cold", zap.Error(err))
	}
	refresher := appcache.NewRefresher(log, linkCache, cacheRefreshInterval)
	refresher.Start()
	defer refresher.Stop()

	signer := httputil.NewTokenSigner([]byte(cfg.Auth.JWTSecret), durationOr(cfg.Auth.TokenTTL, 24*time.Hour))
	verifier := appservice.NewGoogleVerifier(cfg.Auth.GoogleClientID)

	authService := appservice.NewAuthService(verifier, accountRepo)
	linkService := appservice.NewLinkService(linkRepo)
	analyticsService := appservice.NewAnalyticsService(analyticsRepo)
	clickPublisher := appservice.NewClickPublisher(js, geoResolver, log)

	clickConsumer := appservice.NewClickConsumer(js, log, clickRepo, linkRepo)
	if err := clickConsumer.Start(); err != nil {
		log.Fatal("Failed to start click consumer", zap.Error(err))
	}
	defer clickConsumer.Stop()

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Postgres:  pool,
		Redis:     redisClient,
		NATS:      natsConn,
		JetStream: js,

		LinkService:      linkService,
		AnalyticsService: analyticsService,
		AuthService:      authService,
		Cache:            linkCache,
		ClickPublisher:   clickPublisher,
		Signer:           signer,

		BaseURL:            cfg.Shortener.BaseURL,
		RateLimitPerMinute: cfg.Shortener.RateLimitPerMinute,
	})

	if err := server.Listen(":8080"); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}

// durationOr parses a configured duration, falling back when it is empty
// or unusable.
func durationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
