package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/OAtef/coffeehouse/internal/adapter/handler"
	"github.com/OAtef/coffeehouse/internal/adapter/storage"
	"github.com/OAtef/coffeehouse/internal/config"
	"github.com/OAtef/coffeehouse/internal/core/service"
	"github.com/OAtef/coffeehouse/internal/infra/logger"
	"github.com/OAtef/coffeehouse/internal/infra/metrics"
	"github.com/OAtef/coffeehouse/internal/port"
)

func runMigrations(dsn string) error {
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	sqlDB, err := goose.OpenDBWithDriver("mysql", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/example.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.MySQL.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("mysql open failed", "err", err)
		return
	}
	defer db.Close()
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Error("mysql ping failed", "err", err)
		return
	}
	log.Info("connected to mysql")

	mysqlAdapter := storage.NewMySQLAdapter(db)

	var guard port.TransitionGuard
	if cfg.Redis.GuardEnabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis ping failed", "err", err)
			return
		}
		defer rdb.Close()
		guard = storage.NewRedisAdapter(rdb)
		log.Info("transition guard enabled", "addr", cfg.Redis.Addr)
	}

	rec := metrics.New(prometheus.DefaultRegisterer)

	calc := service.NewConsumptionCalculator(mysqlAdapter)
	adjuster := service.NewStockAdjuster(mysqlAdapter, log, rec)
	policy := service.NewTransitionPolicy(calc, adjuster, guard, log)

	mux := http.NewServeMux()
	httpHandler := handler.NewHTTPHandler(mysqlAdapter, mysqlAdapter, policy, log)
	httpHandler.Register(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux}
	go func() {
		log.Info("HTTP server started", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	log.Info("graceful shutdown complete")
}
