package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/example/flyder-sync-service/internal/domain"
)

// LoadMappings — загрузить всю таблицу соответствий в кэш прогона.
type LoadMappings struct {
	Store domain.DocumentStore
}

func (uc LoadMappings) Execute(ctx context.Context, cache domain.MappingCache) error {
	err := uc.Store.List(ctx, domain.CollectionMappings, func(id string, raw []byte) error {
		var m domain.FranchiseMapping
		if err := json.Unmarshal(raw, &m); err != nil {
			// пропускаем битые документы, не прерывая полную загрузку
			return nil
		}
		if m.FlyderBusinessID == 0 || m.RepaartFranchiseID == "" {
			return nil
		}
		cache.Set(m.FlyderBusinessID, m.RepaartFranchiseID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMappingLoad, err)
	}
	return nil
}

// ListMappings — все соответствия, отсортированные по бизнесу Flyder.
type ListMappings struct {
	Store domain.DocumentStore
}

func (uc ListMappings) Execute(ctx context.Context) ([]domain.FranchiseMapping, error) {
	out := []domain.FranchiseMapping{}
	err := uc.Store.List(ctx, domain.CollectionMappings, func(id string, raw []byte) error {
		var m domain.FranchiseMapping
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMappingLoad, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlyderBusinessID < out[j].FlyderBusinessID })
	return out, nil
}

// UpsertMapping — создать или обновить соответствие; id документа — id бизнеса.
type UpsertMapping struct {
	Store domain.DocumentStore
}

func (uc UpsertMapping) Execute(ctx context.Context, m domain.FranchiseMapping) error {
	if m.FlyderBusinessID <= 0 || m.RepaartFranchiseID == "" {
		return domain.ErrValidation
	}
	w, err := domain.NewWrite(domain.CollectionMappings, strconv.FormatInt(m.FlyderBusinessID, 10), m)
	if err != nil {
		return err
	}
	if err := uc.Store.Commit(ctx, []domain.Write{w}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCommit, err)
	}
	return nil
}
