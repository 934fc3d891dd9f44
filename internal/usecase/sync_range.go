package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/domain"
)

// Step — размер окна при синхронизации диапазона.
type Step string

const (
	StepWeek  Step = "week"
	StepMonth Step = "month"
)

func ParseStep(s string) (Step, error) {
	switch Step(s) {
	case StepWeek, StepMonth:
		return Step(s), nil
	}
	return "", fmt.Errorf("%w: unknown step %q (week|month)", domain.ErrValidation, s)
}

// SplitWindows режет [from, to] на последовательные окна: 7 суток или календарный месяц.
// Первое окно начинается с from, последнее обрезается по to.
func SplitWindows(from, to time.Time, step Step) ([]domain.Window, error) {
	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil, fmt.Errorf("%w: range [%s, %s]", domain.ErrInvalidWindow, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	var windows []domain.Window
	for start := from; !start.After(to); {
		var next time.Time
		switch step {
		case StepWeek:
			next = start.AddDate(0, 0, 7)
		case StepMonth:
			y, m, _ := start.Date()
			next = time.Date(y, m+1, 1, 0, 0, 0, 0, start.Location())
		default:
			return nil, fmt.Errorf("%w: unknown step %q", domain.ErrValidation, step)
		}
		end := next.Add(-time.Nanosecond)
		if end.After(to) {
			end = to
		}
		windows = append(windows, domain.Window{Start: start, End: end})
		start = next
	}
	return windows, nil
}

// WindowSyncer — один прогон по окну.
type WindowSyncer interface {
	Execute(ctx context.Context, w domain.Window) (domain.RunStats, error)
}

// WindowFailure — окно, прогон которого завершился фатальной ошибкой.
type WindowFailure struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Offset  int       `json:"offset"`
	Message string    `json:"message"`
}

// RangeReport — сводка по всем окнам диапазона.
type RangeReport struct {
	Windows  int             `json:"windows"`
	Runs     int             `json:"runs"`
	Totals   domain.RunStats `json:"totals"`
	Failures []WindowFailure `json:"failures"`
}

// SyncRange — синхронизация длинного диапазона окнами с постраничной выборкой внутри окна.
// Сбой одного окна записывается в отчёт, следующие окна всё равно обрабатываются.
type SyncRange struct {
	Sync      WindowSyncer
	PageSize  int
	Pause     time.Duration
	MaxErrors int
	Logger    *zap.Logger
}

func (uc SyncRange) Execute(ctx context.Context, from, to time.Time, step Step) (RangeReport, error) {
	windows, err := SplitWindows(from, to, step)
	if err != nil {
		return RangeReport{}, err
	}
	if uc.PageSize < 0 {
		return RangeReport{}, fmt.Errorf("%w: page size must not be negative", domain.ErrValidation)
	}
	log := uc.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxErrors := uc.MaxErrors
	if maxErrors <= 0 {
		maxErrors = defaultMaxErrors
	}

	report := RangeReport{
		Windows:  len(windows),
		Totals:   domain.RunStats{Errors: []domain.RowError{}},
		Failures: []WindowFailure{},
	}
	for i, w := range windows {
		if i > 0 && uc.Pause > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(uc.Pause):
			}
		}
		for offset := 0; ; offset += uc.PageSize {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			page := w
			page.Limit = uc.PageSize
			page.Offset = offset
			stats, err := uc.Sync.Execute(ctx, page)
			report.Runs++
			if err != nil {
				log.Warn("window failed", zap.Stringer("window", page), zap.Error(err))
				report.Failures = append(report.Failures, WindowFailure{
					Start: w.Start, End: w.End, Offset: offset, Message: err.Error(),
				})
				break
			}
			addStats(&report.Totals, stats, maxErrors)
			if uc.PageSize == 0 || stats.TotalFetched < uc.PageSize {
				break
			}
		}
	}
	return report, nil
}

func addStats(dst *domain.RunStats, src domain.RunStats, maxErrors int) {
	dst.TotalFetched += src.TotalFetched
	dst.SyncedOrders += src.SyncedOrders
	dst.SkippedOrders += src.SkippedOrders
	dst.FailedOrders += src.FailedOrders
	dst.NewStoresCreated += src.NewStoresCreated
	dst.DroppedErrors += src.DroppedErrors
	for _, e := range src.Errors {
		if len(dst.Errors) >= maxErrors {
			dst.DroppedErrors++
			continue
		}
		dst.Errors = append(dst.Errors, e)
	}
}
