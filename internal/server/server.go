// Package server is the composition root: it opens the store, loads the
// model, wires services into handlers and owns the HTTP lifecycle.
//
//	config → store (sqlite | postgres | pgx) → optional Redis history cache
//	       → model (linear | docker) → prediction engine
//	       → services → handlers → chi router
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/grade-predictor/internal/auth"
	"github.com/sakif/grade-predictor/internal/config"
	"github.com/sakif/grade-predictor/internal/handler"
	"github.com/sakif/grade-predictor/internal/metrics"
	"github.com/sakif/grade-predictor/internal/middleware"
	"github.com/sakif/grade-predictor/internal/predictor"
	"github.com/sakif/grade-predictor/internal/predictor/docker"
	"github.com/sakif/grade-predictor/internal/predictor/linear"
	"github.com/sakif/grade-predictor/internal/repository"
	"github.com/sakif/grade-predictor/internal/repository/cache"
	"github.com/sakif/grade-predictor/internal/repository/postgres"
	"github.com/sakif/grade-predictor/internal/repository/sqlite"
	"github.com/sakif/grade-predictor/internal/service"
	"github.com/sakif/grade-predictor/internal/validation"
)

// Server owns the router and every resource that must be released on
// shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	store repository.Store
	redis *redis.Client
	// model is set only for backends holding external resources.
	model io.Closer
}

// New assembles the whole application. On error, anything already opened
// is closed again.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	if err := s.init(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	store, err := openStore(s.config.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	s.store = store

	model, err := s.openModel()
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return err
	}

	var predictions repository.PredictionRepository = s.store
	if s.config.Redis.Enabled() {
		s.redis = s.openRedis()
		predictions = cache.NewPredictions(s.store, s.redis, s.config.Redis.TTL, s.logger, s.metrics)
	}

	engine := predictor.NewEngine(model, s.logger, s.metrics)
	s.setupRoutes(
		service.NewPredictionService(engine, s.logger),
		service.NewLedgerService(predictions, s.config.HistoryPageSize, s.logger),
		service.NewAccountService(s.store, passwords, s.logger),
	)
	return nil
}

func openStore(cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqlite.New(cfg.Path)
	case config.DriverPostgres, config.DriverPGX:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return postgres.New(ctx, cfg.Driver, cfg.DSN, postgres.Options{
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (s *Server) openModel() (predictor.Model, error) {
	mc := s.config.Model
	switch mc.Backend {
	case config.BackendLinear:
		m, err := linear.Load(mc.Path)
		if err != nil {
			return nil, err
		}
		s.logger.Info("model loaded",
			slog.String("backend", m.Name()),
			slog.String("version", m.Version()),
		)
		return m, nil
	case config.BackendDocker:
		rt, err := docker.New(docker.Config{
			Image:       mc.Image,
			Command:     mc.Command,
			MemoryLimit: mc.MemoryLimit,
			CPULimit:    mc.CPULimit,
			Timeout:     mc.Timeout,
			PoolSize:    mc.PoolSize,
			Pull:        mc.Pull,
		}, s.logger)
		if err != nil {
			return nil, err
		}
		s.model = rt
		return rt, nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", mc.Backend)
	}
}

// openRedis connects the history cache. An unreachable server is only a
// warning: cache errors fall through to the store on every call.
func (s *Server) openRedis() *redis.Client {
	rc := s.config.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Warn("redis unreachable, history cache will fall back to the store",
			slog.String("addr", rc.Addr),
			slog.String("error", err.Error()),
		)
	}
	return client
}

// setupRoutes configures middleware and routes.
//
// GET  /                           liveness
// POST /predict                    score an InputRecord
// POST /save-prediction/{user_id}  append to a user's history
// GET  /get-predictions/{user_id}  list a user's history
// POST /signup                     register
// POST /login                      check credentials
// POST /mark-not-new/{user_id}     clear the first-visit flag
// GET  /metrics                    Prometheus scrape
//
// Logger and Metrics sit outside Recoverer so a recovered panic is
// recorded as the 500 it becomes.
func (s *Server) setupRoutes(predictions handler.Predictor, ledger handler.Ledger, accounts handler.Accounts) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.CORS.AllowedOrigins))
	s.router.Use(chimiddleware.StripSlashes)

	v := validation.New()
	predictionHandler := handler.NewPredictionHandler(v, predictions, ledger, s.logger)
	accountHandler := handler.NewAccountHandler(v, accounts, s.logger)

	s.router.Get("/", handler.HandleRoot)
	s.router.Post("/predict", predictionHandler.HandlePredict)
	s.router.Post("/save-prediction/{user_id}", predictionHandler.HandleSave)
	s.router.Get("/get-predictions/{user_id}", predictionHandler.HandleList)

	s.router.Post("/signup", accountHandler.HandleSignup)
	s.router.Post("/login", accountHandler.HandleLogin)
	s.router.Post("/mark-not-new/{user_id}", accountHandler.HandleMarkNotNew)

	s.router.Handle("/metrics", s.metrics.Handler())
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the model runtime, the Redis client and the store.
func (s *Server) Close() error {
	var errs []error
	if s.model != nil {
		errs = append(errs, s.model.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes every resource.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("store", s.config.Store.Driver),
			slog.String("model", s.config.Model.Backend),
			slog.Bool("historyCache", s.config.Redis.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
