package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"randomchallenge/api/internal/auth"
	"randomchallenge/api/internal/config"
	"randomchallenge/api/internal/database"
	"randomchallenge/api/internal/handlers"
	"randomchallenge/api/internal/jobs"
	"randomchallenge/api/internal/metrics"
	appmiddleware "randomchallenge/api/internal/middleware"
	"randomchallenge/api/internal/repositories"
	"randomchallenge/api/internal/routers"
	"randomchallenge/api/internal/seed"
	"randomchallenge/api/internal/selection"
	"randomchallenge/api/internal/services"
	"randomchallenge/api/internal/sessions"
	"randomchallenge/api/internal/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var (
	newLogger      = zap.NewProduction
	exitFunc       = os.Exit
	logFatalFn     = defaultLogFatal
	listenAndServe = func(srv *http.Server) error { return srv.ListenAndServe() }
	notifyShutdown = func(c chan<- os.Signal) { signal.Notify(c, syscall.SIGINT, syscall.SIGTERM) }
)

func resetServerGlobals() {
	newLogger = zap.NewProduction
	exitFunc = os.Exit
	logFatalFn = defaultLogFatal
	listenAndServe = func(srv *http.Server) error { return srv.ListenAndServe() }
	notifyShutdown = func(c chan<- os.Signal) { signal.Notify(c, syscall.SIGINT, syscall.SIGTERM) }
}

func defaultLogFatal(err error) {
	fmt.Fprintln(os.Stderr, "server:", err)
	exitFunc(1)
}

func main() {
	if err := run(); err != nil {
		logFatalFn(err)
	}
}

// limiters groups the per-client request limits applied to the API.
type limiters struct {
	api, auth, create *appmiddleware.RateLimiter
}

func newLimiters(cfg *config.Config) limiters {
	return limiters{
		api:    appmiddleware.NewRateLimiter("api", cfg.RateLimit.Requests, cfg.RateLimit.Window),
		auth:   appmiddleware.NewRateLimiter("auth", cfg.AuthRateLimit.Requests, cfg.AuthRateLimit.Window),
		create: appmiddleware.NewRateLimiter("create_challenge", cfg.CreateRateLimit.Requests, cfg.CreateRateLimit.Window),
	}
}

func (l limiters) sweepers() []jobs.Sweeper {
	return []jobs.Sweeper{l.api, l.auth, l.create}
}

// openSessions uses Redis when configured and an in-process store otherwise.
func openSessions(ctx context.Context, cfg *config.Config, logger *zap.Logger) (sessions.Store, func() error, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		return sessions.NewMemoryStore(), func() error { return nil }, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	return sessions.NewRedisStore(rdb), rdb.Close, nil
}

type app struct {
	health     *handlers.HealthHandler
	auth       *handlers.AuthHandler
	categories *handlers.CategoryHandler
	challenges *handlers.ChallengeHandler
	stats      *handlers.StatsHandler
	authn      *appmiddleware.Authenticator
	limits     limiters
}

func newRouter(cfg *config.Config, a app) *chi.Mux {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))
	r.Use(metrics.Middleware)

	routers.HealthRoutes(r, a.health)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.limits.api.Middleware)
		routers.AuthRoutes(r, a.auth, a.authn, a.limits.auth.Middleware)
		routers.CategoryRoutes(r, a.categories, a.authn)
		routers.ChallengeRoutes(r, a.challenges, a.authn, a.limits.create.Middleware)
		routers.StatsRoutes(r, a.stats, a.authn)
	})
	return r
}

func seedOnStart(ctx context.Context, store repositories.Store, hasher auth.Hasher, logger *zap.Logger) error {
	data, err := seed.Default()
	if err != nil {
		return err
	}
	res, err := seed.NewSeeder(store, hasher, logger).Run(ctx, data, false)
	if errors.Is(err, seed.ErrAlreadySeeded) {
		logger.Info("store already seeded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.Info("store seeded", zap.Int("categories", res.Categories), zap.Int("challenges", res.Challenges))
	return nil
}

func run() error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	sess, closeSessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	hasher := auth.Hasher{Cost: cfg.BcryptCost}
	if cfg.SeedOnStart {
		if err := seedOnStart(ctx, store, hasher, logger); err != nil {
			return err
		}
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	authn := appmiddleware.NewAuthenticator(issuer, sess, store.Users(), logger)
	cache, err := services.NewCategoryCache(store.Categories(), 0)
	if err != nil {
		return err
	}
	engine := selection.NewEngine(store.Challenges())
	tr := tracker.New(store.Users(), store.Challenges(), tracker.WithLocation(cfg.Location))
	stats := services.NewStatsService(store, cache)
	limits := newLimiters(cfg)

	scheduler := jobs.NewScheduler(stats, limits.sweepers(), jobs.Config{StatsSchedule: cfg.StatsRefreshSchedule}, logger)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	router := newRouter(cfg, app{
		health:     handlers.NewHealthHandler(store),
		auth:       handlers.NewAuthHandler(store.Users(), hasher, issuer, sess, logger),
		categories: handlers.NewCategoryHandler(store.Categories(), store.Challenges(), cache, logger),
		challenges: handlers.NewChallengeHandler(store.Challenges(), cache, engine, tr, logger),
		stats:      handlers.NewStatsHandler(stats, cfg.Location, logger),
		authn:      authn,
		limits:     limits,
	})

	// http server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("random challenge API starting", zap.String("addr", server.Addr), zap.String("store", cfg.StoreBackend))
		serveErr <- listenAndServe(server)
	}()

	shutdown := make(chan os.Signal, 1)
	notifyShutdown(shutdown)
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case sig := <-shutdown:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("random challenge API exited")
	return nil
}
