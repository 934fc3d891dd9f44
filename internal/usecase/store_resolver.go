package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/example/flyder-sync-service/internal/domain"
)

// StoreResolver лениво создаёт документ магазина для первого заказа, который на него ссылается.
type StoreResolver struct {
	Store domain.DocumentStore
	Now   func() time.Time
}

// Ensure возвращает запись создания магазина или nil, если магазин уже есть.
// seen живёт один прогон и лишь экономит точечные чтения для заказов одного магазина:
// параллельные прогоны с пересекающимися окнами могут оба решить создать магазин,
// повторная запись безвредна благодаря merge-upsert.
func (r StoreResolver) Ensure(ctx context.Context, row domain.SourceOrderRow, franchiseID string, seen map[string]struct{}) (*domain.Write, error) {
	id := domain.StoreDocID(row.StoreID)
	if _, ok := seen[id]; ok {
		return nil, nil
	}
	exists, err := r.Store.Exists(ctx, domain.CollectionStores, id)
	if err != nil {
		return nil, fmt.Errorf("check store %s: %w", id, err)
	}
	if exists {
		seen[id] = struct{}{}
		return nil, nil
	}

	name := row.StoreName
	if name == "" {
		name = fmt.Sprintf("Store %d", row.StoreID)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	w, err := domain.NewWrite(domain.CollectionStores, id, domain.Store{
		ID:          id,
		Name:        name,
		FranchiseID: franchiseID,
		FlyderID:    row.StoreID,
		Status:      domain.StoreStatusActive,
		CreatedAt:   now().UTC(),
		Source:      domain.SourceStoreImport,
	})
	if err != nil {
		return nil, fmt.Errorf("encode store %s: %w", id, err)
	}
	seen[id] = struct{}{}
	return &w, nil
}
