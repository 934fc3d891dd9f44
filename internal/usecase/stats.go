package usecase

import "github.com/example/flyder-sync-service/internal/domain"

const defaultMaxErrors = 100

// StatsAggregator — счётчики исходов прогона и ограниченный список ошибок строк.
type StatsAggregator struct {
	stats     domain.RunStats
	maxErrors int
}

func NewStatsAggregator(maxErrors int) *StatsAggregator {
	if maxErrors <= 0 {
		maxErrors = defaultMaxErrors
	}
	return &StatsAggregator{maxErrors: maxErrors, stats: domain.RunStats{Errors: []domain.RowError{}}}
}

func (s *StatsAggregator) RecordFetched(n int) { s.stats.TotalFetched += n }

func (s *StatsAggregator) RecordSynced() { s.stats.SyncedOrders++ }

func (s *StatsAggregator) RecordSkipped() { s.stats.SkippedOrders++ }

func (s *StatsAggregator) RecordStoreCreated() { s.stats.NewStoresCreated++ }

func (s *StatsAggregator) RecordFailed(recordID, message string) {
	s.stats.FailedOrders++
	if len(s.stats.Errors) >= s.maxErrors {
		s.stats.DroppedErrors++
		return
	}
	s.stats.Errors = append(s.stats.Errors, domain.RowError{RecordID: recordID, Message: message})
}

// Snapshot возвращает копию, не разделяющую список ошибок с агрегатором.
func (s *StatsAggregator) Snapshot() domain.RunStats {
	out := s.stats
	out.Errors = append([]domain.RowError{}, s.stats.Errors...)
	return out
}
