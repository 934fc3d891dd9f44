package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Window — окно выборки по created_at, обе границы включительно.
// Limit == 0 означает выборку всего окна.
//
// Пагинация по offset поверх окна, в которое продолжают поступать строки, может
// пропускать или дублировать строки между вызовами: новая строка внутри окна сдвигает
// последующие страницы. Повторный прогон того же окна безопасен (upsert по id заказа).
type Window struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if w.Start.After(w.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	if w.Limit < 0 || w.Offset < 0 {
		return fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidWindow)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s] limit=%d offset=%d",
		w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), w.Limit, w.Offset)
}

// SyncRequest — входной контракт вызова синхронизации.
type SyncRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Limit     *int   `json:"limit,omitempty"`
	Offset    *int   `json:"offset,omitempty"`
}

// Window проверяет запрос и строит окно; ввод-вывод не выполняется.
func (r SyncRequest) Window() (Window, error) {
	if strings.TrimSpace(r.StartDate) == "" || strings.TrimSpace(r.EndDate) == "" {
		return Window{}, fmt.Errorf("%w: missing date range", ErrInvalidWindow)
	}
	start, _, err := ParseBound(r.StartDate)
	if err != nil {
		return Window{}, fmt.Errorf("%w: startDate: %v", ErrInvalidWindow, err)
	}
	end, dateOnly, err := ParseBound(r.EndDate)
	if err != nil {
		return Window{}, fmt.Errorf("%w: endDate: %v", ErrInvalidWindow, err)
	}
	if dateOnly {
		end = EndOfDay(end)
	}
	w := Window{Start: start, End: end}
	if r.Limit != nil {
		w.Limit = *r.Limit
	}
	if r.Offset != nil {
		w.Offset = *r.Offset
	}
	return w, w.Validate()
}

// ParseBound разбирает RFC 3339 или YYYY-MM-DD (UTC); dateOnly сообщает, была ли это дата.
func ParseBound(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err = time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t.UTC(), false, nil
}

// EndOfDay — последняя наносекунда суток t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}
