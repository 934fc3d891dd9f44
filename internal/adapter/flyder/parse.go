package flyder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/flyder-sync-service/internal/domain"
)

// rawRow — строка в том виде, в каком её отдал драйвер.
type rawRow struct {
	id, businessID, storeID  *string
	storeName, status        *string
	createdAt, updatedAt     *string
	amount, paymentMethod    *string
	distance, duration       *string
	street, city, postalCode *string
	latitude, longitude      *string
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func (r rawRow) parse() domain.FetchedRow {
	out := domain.FetchedRow{RecordID: deref(r.id)}
	row, err := r.toSourceRow()
	if err != nil {
		out.Err = fmt.Errorf("%w: %v", domain.ErrRowParse, err)
		return out
	}
	out.Row = row
	return out
}

func (r rawRow) toSourceRow() (domain.SourceOrderRow, error) {
	var row domain.SourceOrderRow
	var err error
	if row.ID, err = requiredInt("id", r.id); err != nil {
		return row, err
	}
	if row.BusinessID, err = requiredInt("business_id", r.businessID); err != nil {
		return row, err
	}
	if row.StoreID, err = requiredInt("store_id", r.storeID); err != nil {
		return row, err
	}
	if r.createdAt == nil {
		return row, fmt.Errorf("created_at: missing")
	}
	if row.CreatedAt, err = parseTimestamp(*r.createdAt); err != nil {
		return row, fmt.Errorf("created_at: %w", err)
	}
	if r.updatedAt != nil {
		if row.UpdatedAt, err = parseTimestamp(*r.updatedAt); err != nil {
			return row, fmt.Errorf("updated_at: %w", err)
		}
	}
	if r.amount != nil {
		if row.Amount, err = strconv.ParseFloat(strings.TrimSpace(*r.amount), 64); err != nil {
			return row, fmt.Errorf("amount: %w", err)
		}
	}
	if row.Distance, err = optionalFloat("distance", r.distance); err != nil {
		return row, err
	}
	if row.Duration, err = optionalFloat("duration", r.duration); err != nil {
		return row, err
	}
	if row.Latitude, err = optionalFloat("customer_latitude", r.latitude); err != nil {
		return row, err
	}
	if row.Longitude, err = optionalFloat("customer_longitude", r.longitude); err != nil {
		return row, err
	}
	row.StoreName = deref(r.storeName)
	row.Status = deref(r.status)
	row.PaymentMethod = deref(r.paymentMethod)
	row.Street = r.street
	row.City = r.city
	row.PostalCode = r.postalCode
	return row, nil
}

// parseTimestamp понимает DATETIME/TIMESTAMP MySQL и RFC3339; без зоны — UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q", s)
}

func requiredInt(field string, v *string) (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("%s: missing", field)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(*v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}

func optionalFloat(field string, v *string) (*float64, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
