package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flyder-sync-service/internal/domain"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRegistryRecordsRunsAndCommits(t *testing.T) {
	r := New()
	r.ObserveCommit(450, nil)
	r.ObserveCommit(12, nil)
	r.ObserveCommit(3, errors.New("boom"))

	r.ObserveRun(domain.RunStats{SyncedOrders: 3, SkippedOrders: 1, FailedOrders: 2, NewStoresCreated: 1}, time.Second, nil)
	r.ObserveRun(domain.RunStats{}, time.Millisecond, &domain.FatalError{Stage: domain.StateFetching, Err: domain.ErrQuery})
	r.ObserveRun(domain.RunStats{}, 0, domain.ErrInvalidWindow)

	body := scrape(t, r)
	for _, want := range []string{
		`flyder_sync_commits_total{result="ok"} 2`,
		`flyder_sync_commits_total{result="error"} 1`,
		`flyder_sync_commit_ops_count 2`,
		`flyder_sync_commit_ops_sum 462`,
		`flyder_sync_runs_total{result="ok"} 1`,
		`flyder_sync_runs_total{result="fatal"} 1`,
		`flyder_sync_runs_total{result="rejected"} 1`,
		`flyder_sync_orders_total{outcome="synced"} 3`,
		`flyder_sync_orders_total{outcome="skipped"} 1`,
		`flyder_sync_orders_total{outcome="failed"} 2`,
		`flyder_sync_stores_created_total 1`,
		`flyder_sync_run_duration_seconds_count 2`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestRegistryDescribesEveryMetric(t *testing.T) {
	r := New()
	r.ObserveCommit(1, nil)
	r.ObserveRun(domain.RunStats{SyncedOrders: 1}, time.Second, nil)

	body := scrape(t, r)
	for _, name := range []string{
		"flyder_sync_runs_total",
		"flyder_sync_orders_total",
		"flyder_sync_stores_created_total",
		"flyder_sync_commits_total",
		"flyder_sync_commit_ops",
		"flyder_sync_run_duration_seconds",
	} {
		assert.Regexp(t, `(?m)^# HELP `+name+` \S`, body)
	}
}
