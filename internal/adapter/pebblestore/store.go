package pebblestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/example/flyder-sync-service/internal/domain"
)

// DefaultMaxOps — потолок операций на коммит, как у Firestore.
const DefaultMaxOps = 500

// Store — локальное хранилище документов на PebbleDB. Ключ — "collection/id", значение — JSON документа.
type Store struct {
	db     *pebble.DB
	maxOps int
	// read-modify-write в Commit должен быть последовательным
	mu sync.Mutex
}

func Open(dir string, maxOps int) (*Store, error) {
	if maxOps <= 0 {
		maxOps = DefaultMaxOps
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Store{db: db, maxOps: maxOps}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) MaxOpsPerCommit() int { return s.maxOps }

func docKey(collection, id string) []byte { return []byte(collection + "/" + id) }

func (s *Store) Exists(_ context.Context, collection, id string) (bool, error) {
	_, closer, err := s.db.Get(docKey(collection, id))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = closer.Close()
	return true, nil
}

func (s *Store) List(ctx context.Context, collection string, fn func(id string, raw []byte) error) error {
	prefix := []byte(collection + "/")
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := string(bytes.TrimPrefix(it.Key(), prefix))
		raw := append([]byte(nil), it.Value()...)
		if err := fn(id, raw); err != nil {
			return err
		}
	}
	return it.Error()
}

// Commit сливает поля каждой записи с сохранённым документом и применяет всё одним батчем.
func (s *Store) Commit(ctx context.Context, writes []domain.Write) error {
	if len(writes) > s.maxOps {
		return fmt.Errorf("batch of %d writes exceeds limit %d", len(writes), s.maxOps)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.db.NewIndexedBatch()
	defer b.Close()
	for _, w := range writes {
		key := docKey(w.Collection, w.ID)
		doc := map[string]any{}
		v, closer, err := b.Get(key)
		switch {
		case err == nil:
			err = json.Unmarshal(v, &doc)
			_ = closer.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		case !errors.Is(err, pebble.ErrNotFound):
			return err
		}
		raw, err := json.Marshal(mergeFields(doc, w.Fields))
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if err := b.Set(key, raw, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// mergeFields рекурсивно накладывает src на dst; вложенные объекты сливаются, остальное заменяется.
func mergeFields(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				dst[k] = mergeFields(cur, sub)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

var _ domain.DocumentStore = (*Store)(nil)
