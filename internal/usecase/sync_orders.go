package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/domain"
)

// DefaultFlushThreshold оставляет запас до предела в 500 операций на коммит.
const DefaultFlushThreshold = 450

// SyncHistoricalOrders — прогон синхронизации заказов Flyder за окно дат.
//
// Ошибки отдельной строки (разбор, преобразование, чтение магазина) учитываются как failed,
// цикл продолжается. Сбой загрузки соответствий, соединения, запроса или любого коммита
// (в цикле и финального) прерывает прогон: частичная статистика не возвращается,
// соединение с источником закрывается в любом случае.
type SyncHistoricalOrders struct {
	Source          domain.SourceConnector
	Store           domain.DocumentStore
	NewMappingCache func() domain.MappingCache
	Transformer     Transformer
	FlushThreshold  int
	MaxErrors       int
	Metrics         domain.SyncMetrics
	Logger          *zap.Logger
	Now             func() time.Time
}

type run struct {
	log      *zap.Logger
	mappings domain.MappingCache
	seen     map[string]struct{}
	resolver StoreResolver
	writer   *BatchWriter
	stats    *StatsAggregator
}

func (uc SyncHistoricalOrders) Execute(ctx context.Context, w domain.Window) (domain.RunStats, error) {
	metrics := uc.Metrics
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	log := uc.Logger
	if log == nil {
		log = zap.NewNop()
	}

	threshold, err := uc.threshold(w)
	if err != nil {
		metrics.ObserveRun(domain.RunStats{}, 0, err)
		log.Warn("sync rejected", zap.Error(err))
		return domain.RunStats{}, err
	}
	log = log.With(zap.String("run_id", uuid.NewString()), zap.Stringer("window", w))

	started := time.Now()
	stats, err := uc.execute(ctx, w, &run{
		log:      log,
		seen:     make(map[string]struct{}),
		resolver: StoreResolver{Store: uc.Store, Now: uc.Now},
		writer:   NewBatchWriter(uc.Store, threshold, metrics),
		stats:    NewStatsAggregator(uc.MaxErrors),
	})
	elapsed := time.Since(started)
	metrics.ObserveRun(stats, elapsed, err)
	if err != nil {
		log.Error("sync fatal error", zap.Error(err), zap.Duration("elapsed", elapsed))
		return domain.RunStats{}, err
	}
	log.Info("sync completed",
		zap.Int("total_fetched", stats.TotalFetched),
		zap.Int("synced", stats.SyncedOrders),
		zap.Int("skipped", stats.SkippedOrders),
		zap.Int("failed", stats.FailedOrders),
		zap.Int("new_stores", stats.NewStoresCreated),
		zap.Duration("elapsed", elapsed),
	)
	return stats, nil
}

// threshold проверяет окно и зависимости до открытия чего-либо.
func (uc SyncHistoricalOrders) threshold(w domain.Window) (int, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	if uc.Source == nil || uc.Store == nil || uc.NewMappingCache == nil {
		return 0, fmt.Errorf("%w: source, store and mapping cache are required", domain.ErrConfiguration)
	}
	threshold := uc.FlushThreshold
	if threshold == 0 {
		threshold = DefaultFlushThreshold
	}
	if ceiling := uc.Store.MaxOpsPerCommit(); threshold < 1 || threshold >= ceiling {
		return 0, fmt.Errorf("%w: flush threshold %d must be in [1, %d)", domain.ErrConfiguration, threshold, ceiling)
	}
	return threshold, nil
}

func (uc SyncHistoricalOrders) execute(ctx context.Context, w domain.Window, r *run) (domain.RunStats, error) {
	r.mappings = uc.NewMappingCache()
	if err := (LoadMappings{Store: uc.Store}).Execute(ctx, r.mappings); err != nil {
		return domain.RunStats{}, &domain.FatalError{Stage: domain.StateLoadingMappings, Err: err}
	}
	r.log.Debug("mappings loaded", zap.Int("count", r.mappings.Len()))

	sess, err := uc.Source.Open(ctx)
	if err != nil {
		return domain.RunStats{}, &domain.FatalError{Stage: domain.StateFetching, Err: err}
	}
	defer func() {
		// отдельный контекст: соединение закрывается и после отмены ctx
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := sess.Close(closeCtx); cerr != nil {
			r.log.Warn("close source connection", zap.Error(cerr))
		}
	}()

	rows, err := sess.Fetch(ctx, w)
	if err != nil {
		return domain.RunStats{}, &domain.FatalError{Stage: domain.StateFetching, Err: err}
	}
	r.stats.RecordFetched(len(rows))

	for _, fr := range rows {
		skipped, err := uc.processRow(ctx, fr, r)
		switch {
		case err != nil:
			r.log.Warn("order failed", zap.String("order_id", fr.RecordID), zap.Error(err))
			r.stats.RecordFailed(fr.RecordID, err.Error())
		case skipped:
			r.stats.RecordSkipped()
		default:
			r.stats.RecordSynced()
		}
		if err := r.writer.FlushIfFull(ctx); err != nil {
			return domain.RunStats{}, &domain.FatalError{Stage: domain.StateProcessing, Err: err}
		}
	}

	if err := r.writer.FlushRemaining(ctx); err != nil {
		return domain.RunStats{}, &domain.FatalError{Stage: domain.StateFinalCommit, Err: err}
	}
	return r.stats.Snapshot(), nil
}

// processRow либо ставит в очередь все записи строки, либо ни одной.
func (uc SyncHistoricalOrders) processRow(ctx context.Context, fr domain.FetchedRow, r *run) (skipped bool, err error) {
	if fr.Err != nil {
		return false, fr.Err
	}
	row := fr.Row
	franchiseID, ok := r.mappings.Get(row.BusinessID)
	if !ok {
		r.log.Debug("no franchise mapping", zap.String("order_id", fr.RecordID), zap.Int64("business_id", row.BusinessID))
		return true, nil
	}

	order, err := uc.Transformer.Transform(row, franchiseID)
	if err != nil {
		return false, err
	}
	orderWrite, err := domain.NewWrite(domain.CollectionOrders, order.ID, order)
	if err != nil {
		return false, fmt.Errorf("%w: encode order: %v", domain.ErrTransform, err)
	}
	storeWrite, err := r.resolver.Ensure(ctx, row, franchiseID, r.seen)
	if err != nil {
		return false, err
	}

	if storeWrite != nil {
		r.writer.Stage(*storeWrite)
		r.stats.RecordStoreCreated()
	}
	r.writer.Stage(orderWrite)
	return false, nil
}
