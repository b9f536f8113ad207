package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/config"
	"github.com/wawengkz/INVENT/internal/api"
	"github.com/wawengkz/INVENT/internal/health"
	"github.com/wawengkz/INVENT/internal/logs"
	"github.com/wawengkz/INVENT/internal/middleware"
	"github.com/wawengkz/INVENT/internal/secrets"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	redis      *redis.Client
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := OpenDB(a.cfg)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	a.db = d
	svc := NewServices(a.cfg, a.db)

	tokens, err := secrets.NewTokenSet(a.cfg.Auth.Tokens)
	if err != nil {
		return fmt.Errorf("auth tokens: %w", err)
	}

	/* 3) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.RequestLogger(a.cfg.Logging.SlowRequest),
	)

	/* 4) Health */
	checks := map[string]health.Check{"database": health.DB(a.db)}

	/* 5) API */
	apiRouter := a.Router.PathPrefix("/api").Subrouter()
	if a.cfg.RateLimit.Enabled {
		store, rc := rateLimitStore(a.cfg)
		if rc != nil {
			a.redis = rc
			checks["redis"] = health.Redis(rc)
		}
		apiRouter.Use(middleware.RateLimit(middleware.RateLimitOptions{
			Store:  store,
			Max:    a.cfg.RateLimit.Max,
			Window: a.cfg.RateLimit.Window,
		}))
	}
	apiRouter.Use(middleware.TokenAuth(tokens))
	health.RegisterRoutesWithChecks(a.Router, checks) // /healthz, /readyz

	api.RegisterRoutes(apiRouter, api.NewHandler(api.Dependencies{
		Stations:    svc.Stations,
		Bays:        svc.Bays,
		Departments: svc.Departments,
		Engine:      svc.Engine,
		Audits:      svc.Audits,
		MaxBatch:    a.cfg.Limits.MaxBatchSize,
	}))

	if tokens.Empty() {
		logs.L().Warn("auth.tokens is empty: API is open")
	}

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.L().WithFields(logrus.Fields{"methods": methods, "path": path}).Debug("route")
		return nil
	})
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты; выгрузки xlsx укладываются в WriteTimeout
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	a.Close()
	return nil
}

// Close освобождает БД и Redis.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logs.Logger.Warnf("redis close: %v", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
