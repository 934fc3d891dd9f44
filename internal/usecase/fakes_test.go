package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/flyder-sync-service/internal/domain"
)

// memStore — DocumentStore в памяти с merge-семантикой и счётчиками вызовов.
type memStore struct {
	docs        map[string]map[string]any
	commits     [][]domain.Write
	maxOps      int
	existsCalls int
	listCalls   int

	failCommitAt int // номер коммита (с 1), который вернёт ошибку
	existsErr    map[string]error
	listErr      error
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]map[string]any), maxOps: 500, existsErr: map[string]error{}}
}

func docKey(collection, id string) string { return collection + "/" + id }

func (s *memStore) Exists(_ context.Context, collection, id string) (bool, error) {
	s.existsCalls++
	if err := s.existsErr[id]; err != nil {
		return false, err
	}
	_, ok := s.docs[docKey(collection, id)]
	return ok, nil
}

func (s *memStore) List(_ context.Context, collection string, fn func(id string, raw []byte) error) error {
	s.listCalls++
	if s.listErr != nil {
		return s.listErr
	}
	var keys []string
	for k := range s.docs {
		if strings.HasPrefix(k, collection+"/") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		raw, err := json.Marshal(s.docs[k])
		if err != nil {
			return err
		}
		if err := fn(strings.TrimPrefix(k, collection+"/"), raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Commit(_ context.Context, writes []domain.Write) error {
	if len(writes) > s.maxOps {
		return fmt.Errorf("batch of %d writes exceeds %d", len(writes), s.maxOps)
	}
	if s.failCommitAt == len(s.commits)+1 {
		return errors.New("deadline exceeded")
	}
	for _, w := range writes {
		k := docKey(w.Collection, w.ID)
		cur, ok := s.docs[k]
		if !ok {
			cur = map[string]any{}
		}
		s.docs[k] = mergeMaps(cur, w.Fields)
	}
	s.commits = append(s.commits, append([]domain.Write(nil), writes...))
	return nil
}

func (s *memStore) MaxOpsPerCommit() int { return s.maxOps }

func mergeMaps(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				dst[k] = mergeMaps(dv, sv)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

func (s *memStore) doc(collection, id string) (map[string]any, bool) {
	d, ok := s.docs[docKey(collection, id)]
	return d, ok
}

func (s *memStore) count(collection string) int {
	n := 0
	for k := range s.docs {
		if strings.HasPrefix(k, collection+"/") {
			n++
		}
	}
	return n
}

func (s *memStore) seedMapping(businessID int64, franchiseID string) {
	s.docs[docKey(domain.CollectionMappings, strconv.FormatInt(businessID, 10))] = map[string]any{
		"flyderBusinessId":   float64(businessID),
		"repaartFranchiseId": franchiseID,
	}
}

func (s *memStore) seedStore(storeID int64) {
	id := domain.StoreDocID(storeID)
	s.docs[docKey(domain.CollectionStores, id)] = map[string]any{"id": id, "name": "existing"}
}

// fakeSource — SourceConnector с заранее заданными строками.
type fakeSource struct {
	rows     []domain.FetchedRow
	openErr  error
	fetchErr error

	opened  int
	closed  int
	windows []domain.Window
}

func (f *fakeSource) Open(context.Context) (domain.SourceSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &fakeSession{src: f}, nil
}

type fakeSession struct{ src *fakeSource }

func (s *fakeSession) Fetch(_ context.Context, w domain.Window) ([]domain.FetchedRow, error) {
	s.src.windows = append(s.src.windows, w)
	if s.src.fetchErr != nil {
		return nil, s.src.fetchErr
	}
	return s.src.rows, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.src.closed++
	return nil
}

var baseTime = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

// completeRow — строка без аномалий.
func completeRow(id, businessID, storeID int64) domain.FetchedRow {
	return domain.FetchedRow{
		RecordID: strconv.FormatInt(id, 10),
		Row: domain.SourceOrderRow{
			ID:            id,
			BusinessID:    businessID,
			StoreID:       storeID,
			StoreName:     fmt.Sprintf("Store %d", storeID),
			Status:        "finished",
			CreatedAt:     baseTime.Add(time.Duration(id) * time.Minute),
			UpdatedAt:     baseTime.Add(time.Duration(id)*time.Minute + 30*time.Minute),
			Amount:        18.90,
			PaymentMethod: "card",
			Distance:      f64(3200),
			Duration:      f64(1500),
			Street:        str("Calle Mayor 1"),
			City:          str("Madrid"),
			PostalCode:    str("28013"),
			Latitude:      f64(40.4168),
			Longitude:     f64(-3.7038),
		},
	}
}

var testWindow = domain.Window{
	Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC),
}
