package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/adapter/httpapi"
	"github.com/example/flyder-sync-service/internal/adapter/natsstan"
	"github.com/example/flyder-sync-service/internal/app"
	"github.com/example/flyder-sync-service/internal/config"
	"github.com/example/flyder-sync-service/internal/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("build app", zap.Error(err))
	}
	defer a.Close()

	if cfg.Stan.Enabled {
		sub := &natsstan.Subscriber{
			ClusterID: cfg.Stan.ClusterID,
			ClientID:  cfg.Stan.ClientID,
			URL:       cfg.Stan.URL,
			Subject:   cfg.Stan.Subject,
			Durable:   cfg.Stan.Durable,
			AckWait:   cfg.Stan.AckWait,
			Log:       logger.Named("stan"),
		}
		if err := sub.Subscribe(ctx, a.Requests.Execute); err != nil {
			// HTTP остаётся доступен и без брокера
			logger.Error("stan subscribe", zap.Error(err))
		}
	}

	api := httpapi.NewServer(a.Sync, a.ListMappings, a.UpsertMapping, a.Metrics.Handler(), logger.Named("http"))
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: api.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}
