package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/adapter/cache"
	"github.com/example/flyder-sync-service/internal/adapter/flyder"
	"github.com/example/flyder-sync-service/internal/adapter/metrics"
	"github.com/example/flyder-sync-service/internal/adapter/pebblestore"
	"github.com/example/flyder-sync-service/internal/adapter/repo"
	"github.com/example/flyder-sync-service/internal/config"
	"github.com/example/flyder-sync-service/internal/domain"
	"github.com/example/flyder-sync-service/internal/usecase"
)

// App — собранные зависимости одного процесса.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Store   domain.DocumentStore
	Metrics *metrics.Registry

	Sync          usecase.SyncHistoricalOrders
	Range         usecase.SyncRange
	Requests      usecase.ProcessSyncRequest
	ListMappings  usecase.ListMappings
	UpsertMapping usecase.UpsertMapping

	closers []func() error
}

// Build открывает хранилище назначения и связывает usecase-ы. Источник открывается только на прогон.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.Sync = usecase.SyncHistoricalOrders{
		Source:          flyder.NewConnector(cfg.Flyder, log.Named("flyder")),
		Store:           store,
		NewMappingCache: cache.NewMappingCache,
		Transformer:     usecase.Transformer{Pricing: cfg.Sync.Pricing},
		FlushThreshold:  cfg.Sync.FlushThreshold,
		MaxErrors:       cfg.Sync.MaxErrors,
		Metrics:         a.Metrics,
		Logger:          log.Named("sync"),
	}
	a.Range = usecase.SyncRange{
		Sync:      a.Sync,
		PageSize:  cfg.Sync.PageSize,
		Pause:     cfg.Sync.Pause,
		MaxErrors: cfg.Sync.MaxErrors,
		Logger:    log.Named("range"),
	}
	a.Requests = usecase.ProcessSyncRequest{Sync: a.Sync, Logger: log.Named("requests")}
	a.ListMappings = usecase.ListMappings{Store: store}
	a.UpsertMapping = usecase.UpsertMapping{Store: store}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (domain.DocumentStore, error) {
	d := a.Config.Destination
	switch d.Driver {
	case config.DriverPebble:
		st, err := pebblestore.Open(d.Dir, d.MaxOpsPerCommit)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		a.Log.Info("destination opened", zap.String("driver", d.Driver), zap.String("dir", d.Dir))
		return st, nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, d.URL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(initCtx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.Log.Info("destination opened", zap.String("driver", d.Driver))
		return repo.NewPostgresDocumentStore(pool, d.MaxOpsPerCommit), nil
	default:
		return nil, fmt.Errorf("%w: unknown destination driver %q", domain.ErrConfiguration, d.Driver)
	}
}

// Close закрывает ресурсы в обратном порядке открытия.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
