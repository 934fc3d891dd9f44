package usecase

import (
	"context"
	"fmt"

	"github.com/example/flyder-sync-service/internal/domain"
)

// BatchWriter копит записи и фиксирует их группами. Порог должен быть строго меньше
// MaxOpsPerCommit хранилища: строка может добавить две записи (магазин и заказ)
// перед проверкой FlushIfFull.
type BatchWriter struct {
	store     domain.DocumentStore
	threshold int
	metrics   domain.SyncMetrics

	pending []domain.Write
	commits int
}

func NewBatchWriter(store domain.DocumentStore, threshold int, metrics domain.SyncMetrics) *BatchWriter {
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &BatchWriter{store: store, threshold: threshold, metrics: metrics}
}

// Stage добавляет записи в открытую группу в порядке вызова.
func (b *BatchWriter) Stage(writes ...domain.Write) {
	b.pending = append(b.pending, writes...)
}

// FlushIfFull фиксирует группу, если она достигла порога.
func (b *BatchWriter) FlushIfFull(ctx context.Context) error {
	if len(b.pending) < b.threshold {
		return nil
	}
	return b.flush(ctx)
}

// FlushRemaining фиксирует всё, что осталось после цикла.
func (b *BatchWriter) FlushRemaining(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	return b.flush(ctx)
}

func (b *BatchWriter) flush(ctx context.Context) error {
	ops := len(b.pending)
	err := b.store.Commit(ctx, b.pending)
	b.metrics.ObserveCommit(ops, err)
	if err != nil {
		return fmt.Errorf("%w: %d writes: %w", domain.ErrCommit, ops, err)
	}
	b.pending = nil
	b.commits++
	return nil
}

func (b *BatchWriter) Pending() int { return len(b.pending) }

func (b *BatchWriter) Commits() int { return b.commits }
