package domain

import (
	"context"
	"encoding/json"
	"time"
)

// MappingCache — порт таблицы соответствий бизнес Flyder -> франшиза, загружаемой на прогон.
type MappingCache interface {
	Get(businessID int64) (string, bool)
	Set(businessID int64, franchiseID string)
	Len() int
}

// SourceConnector — порт источника заказов. Open захватывает одно соединение на прогон.
type SourceConnector interface {
	Open(ctx context.Context) (SourceSession, error)
}

// SourceSession — открытое соединение с источником; Close обязателен на любом пути выхода.
type SourceSession interface {
	Fetch(ctx context.Context, w Window) ([]FetchedRow, error)
	Close(ctx context.Context) error
}

// Write — одна операция merge-upsert: поля Fields сливаются с документом, остальные сохраняются.
type Write struct {
	Collection string
	ID         string
	Fields     map[string]any
}

// NewWrite сериализует документ в набор полей для записи.
func NewWrite(collection, id string, doc any) (Write, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Write{}, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Write{}, err
	}
	return Write{Collection: collection, ID: id, Fields: fields}, nil
}

// DocumentStore — порт целевого хранилища документов.
type DocumentStore interface {
	Exists(ctx context.Context, collection, id string) (bool, error)
	List(ctx context.Context, collection string, fn func(id string, raw []byte) error) error
	// Commit применяет writes одной транзакцией; len(writes) не должен превышать MaxOpsPerCommit.
	Commit(ctx context.Context, writes []Write) error
	MaxOpsPerCommit() int
}

// SyncRequestSubscriber — порт подписчика на запросы синхронизации.
type SyncRequestSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}

// SyncMetrics — порт метрик прогонов.
type SyncMetrics interface {
	ObserveCommit(ops int, err error)
	ObserveRun(stats RunStats, elapsed time.Duration, err error)
}

// NopMetrics — SyncMetrics, который ничего не делает.
type NopMetrics struct{}

func (NopMetrics) ObserveCommit(int, error)                  {}
func (NopMetrics) ObserveRun(RunStats, time.Duration, error) {}
