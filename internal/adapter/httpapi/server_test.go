package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flyder-sync-service/internal/domain"
)

type stubSync struct {
	stats   domain.RunStats
	err     error
	got     []domain.Window
	ctxErrs []error
}

func (s *stubSync) Execute(ctx context.Context, w domain.Window) (domain.RunStats, error) {
	s.got = append(s.got, w)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.stats, s.err
}

type stubMappings struct {
	list []domain.FranchiseMapping
	set  []domain.FranchiseMapping
	err  error
}

func (s *stubMappings) Execute(context.Context) ([]domain.FranchiseMapping, error) {
	return s.list, s.err
}

type stubSetMapping struct{ m *stubMappings }

func (s stubSetMapping) Execute(_ context.Context, m domain.FranchiseMapping) error {
	if m.RepaartFranchiseID == "" {
		return domain.ErrValidation
	}
	s.m.set = append(s.m.set, m)
	return s.m.err
}

func newTestServer(sync *stubSync, maps *stubMappings) *Server {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) })
	return NewServer(sync, maps, stubSetMapping{m: maps}, metrics, nil)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestSyncHistorical(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCalls  int
	}{
		{name: "success", body: `{"startDate":"2024-01-01","endDate":"2024-01-31"}`, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "broken body", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing end date", body: `{"startDate":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
		{name: "start after end", body: `{"startDate":"2024-02-01","endDate":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
		{
			name:       "fatal run",
			body:       `{"startDate":"2024-01-01","endDate":"2024-01-31"}`,
			err:        &domain.FatalError{Stage: domain.StateFetching, Err: domain.ErrConnection},
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
		{
			name:       "configuration error",
			body:       `{"startDate":"2024-01-01","endDate":"2024-01-31"}`,
			err:        domain.ErrConfiguration,
			wantStatus: http.StatusBadRequest,
			wantCalls:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sync := &stubSync{stats: domain.RunStats{TotalFetched: 3, SyncedOrders: 2, SkippedOrders: 1, Errors: []domain.RowError{}}, err: tt.err}
			rec := do(newTestServer(sync, &stubMappings{}), http.MethodPost, "/api/sync/historical", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Len(t, sync.got, tt.wantCalls)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, body["success"])
				progress := body["progress"].(map[string]any)
				assert.Equal(t, 2.0, progress["syncedOrders"])
			} else {
				assert.NotEmpty(t, body["error"])
				assert.NotContains(t, body, "progress")
			}
		})
	}
}

func TestSyncHistoricalPassesWindow(t *testing.T) {
	sync := &stubSync{}
	rec := do(newTestServer(sync, &stubMappings{}), http.MethodPost, "/api/sync/historical",
		`{"startDate":"2024-01-01T00:00:00Z","endDate":"2024-01-02T00:00:00Z","limit":100,"offset":200}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sync.got, 1)
	assert.Equal(t, 100, sync.got[0].Limit)
	assert.Equal(t, 200, sync.got[0].Offset)
}

func TestListMappings(t *testing.T) {
	maps := &stubMappings{list: []domain.FranchiseMapping{{FlyderBusinessID: 7, RepaartFranchiseID: "fr-7"}}}
	rec := do(newTestServer(&stubSync{}, maps), http.MethodGet, "/api/mappings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"flyderBusinessId":7,"repaartFranchiseId":"fr-7"}]`, rec.Body.String())

	rec = do(newTestServer(&stubSync{}, &stubMappings{}), http.MethodGet, "/api/mappings", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(newTestServer(&stubSync{}, &stubMappings{err: errors.New("down")}), http.MethodGet, "/api/mappings", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPutMapping(t *testing.T) {
	maps := &stubMappings{}
	s := newTestServer(&stubSync{}, maps)

	rec := do(s, http.MethodPut, "/api/mappings/7", `{"franchiseId":"fr-7"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.FranchiseMapping{{FlyderBusinessID: 7, RepaartFranchiseID: "fr-7"}}, maps.set)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPut, "/api/mappings/abc", `{"franchiseId":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPut, "/api/mappings/7", `{"franchiseId":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPut, "/api/mappings/7", `nope`).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(&stubSync{}, &stubMappings{})
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "").Code)
	rec := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodGet, "/api/sync/historical", "").Code)
}

func TestSyncHistoricalSurvivesClientDisconnect(t *testing.T) {
	sync := &stubSync{stats: domain.RunStats{TotalFetched: 1, SyncedOrders: 1}}
	srv := newTestServer(sync, &stubMappings{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/sync/historical",
		strings.NewReader(`{"startDate":"2024-01-01","endDate":"2024-01-31"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sync.ctxErrs, 1)
	assert.NoError(t, sync.ctxErrs[0])
}
