package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/flyder-sync-service/internal/domain"
)

// Registry — метрики прогонов синхронизации на собственном prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	Runs          *prometheus.CounterVec
	Orders        *prometheus.CounterVec
	StoresCreated prometheus.Counter
	Commits       *prometheus.CounterVec
	CommitOps     prometheus.Histogram
	RunDuration   prometheus.Histogram
}

func New() *Registry {
	r := prometheus.NewRegistry()
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flyder_sync_runs_total",
		Help: "Sync runs by result: ok, fatal or rejected before any I/O.",
	}, []string{"result"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flyder_sync_orders_total",
		Help: "Source orders processed by outcome: synced, skipped or failed.",
	}, []string{"outcome"})
	stores := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flyder_sync_stores_created_total",
		Help: "Store documents created for source stores seen for the first time.",
	})
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flyder_sync_commits_total",
		Help: "Destination batch commits by result.",
	}, []string{"result"})
	commitOps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flyder_sync_commit_ops",
		Help:    "Write operations per successful batch commit.",
		Buckets: []float64{1, 10, 50, 100, 250, 450, 500},
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flyder_sync_run_duration_seconds",
		Help:    "Wall time of sync runs that reached the source.",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(runs, orders, stores, commits, commitOps, duration)
	return &Registry{
		reg:           r,
		Runs:          runs,
		Orders:        orders,
		StoresCreated: stores,
		Commits:       commits,
		CommitOps:     commitOps,
		RunDuration:   duration,
	}
}

func (r *Registry) ObserveCommit(ops int, err error) {
	if err != nil {
		r.Commits.WithLabelValues("error").Inc()
		return
	}
	r.Commits.WithLabelValues("ok").Inc()
	r.CommitOps.Observe(float64(ops))
}

// ObserveRun учитывает прогон; result — ok, rejected (ошибка запроса) или fatal.
func (r *Registry) ObserveRun(stats domain.RunStats, elapsed time.Duration, err error) {
	var fatal *domain.FatalError
	switch {
	case err == nil:
		r.Runs.WithLabelValues("ok").Inc()
	case errors.As(err, &fatal):
		r.Runs.WithLabelValues("fatal").Inc()
	default:
		// до источника не дошли: длительность и счётчики заказов не трогаем
		r.Runs.WithLabelValues("rejected").Inc()
		return
	}
	r.RunDuration.Observe(elapsed.Seconds())
	r.Orders.WithLabelValues("synced").Add(float64(stats.SyncedOrders))
	r.Orders.WithLabelValues("skipped").Add(float64(stats.SkippedOrders))
	r.Orders.WithLabelValues("failed").Add(float64(stats.FailedOrders))
	r.StoresCreated.Add(float64(stats.NewStoresCreated))
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

var _ domain.SyncMetrics = (*Registry)(nil)
