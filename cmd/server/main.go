package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/coffee_order/internal/config"
	"github.com/Skotchmaster/coffee_order/internal/db"
	"github.com/Skotchmaster/coffee_order/internal/events"
	"github.com/Skotchmaster/coffee_order/internal/httpserver"
	"github.com/Skotchmaster/coffee_order/internal/logging"
	authmw "github.com/Skotchmaster/coffee_order/internal/middleware/auth"
	"github.com/Skotchmaster/coffee_order/internal/repo"
	"github.com/Skotchmaster/coffee_order/internal/search"
	"github.com/Skotchmaster/coffee_order/internal/service"
	"github.com/Skotchmaster/coffee_order/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}

	r := repo.New(gdb)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			cancel()
			log.Fatalf("kafka producer: %v", err)
		}
		publisher = prod
	} else {
		logger.Info("kafka disabled", "reason", "KAFKA_BROKERS is empty")
	}

	authSvc := &service.AuthService{
		Repo: r,
		Issuer: &tokens.Issuer{
			AccessSecret:  cfg.JWTAccessSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
		},
		Events: publisher,
	}
	catalogSvc := &service.CatalogService{Repo: r, Events: publisher}
	orderSvc := &service.OrderService{Repo: r, Events: publisher}

	if cfg.AdminUsername != "" {
		if _, err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			cancel()
			log.Fatalf("admin seed: %v", err)
		}
		logger.Info("admin account ensured", "username", cfg.AdminUsername)
	}

	if cfg.ESURL != "" {
		if idx, err := openIndex(ctx, cfg, r); err != nil {
			logger.Warn("search index unavailable", "reason", "falling back to db search", "error", err)
		} else {
			catalogSvc.Index = idx
		}
	}
	cancel()

	e := httpserver.NewServer(logger)
	httpserver.Register(e, &httpserver.Deps{
		DB:             gdb,
		Auth:           authmw.New(authSvc),
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("shutdown complete")
}

// openIndex connects to elasticsearch and loads the current catalog into it.
func openIndex(ctx context.Context, cfg *config.Config, r *repo.GormRepo) (*search.Elastic, error) {
	idx, err := search.NewElastic(ctx, search.Config{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	products, err := r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if err := idx.Reindex(ctx, products); err != nil {
		return nil, err
	}
	return idx, nil
}
