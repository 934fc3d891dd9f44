package usecase

import (
	"fmt"
	"math"

	"github.com/example/flyder-sync-service/internal/domain"
)

// Метки аномалий качества данных.
const (
	AnomalySuspiciousDuration = "suspicious_duration"
	AnomalyExtremeDistance    = "extreme_distance"
	AnomalyMissingGeolocation = "missing_geolocation"
)

const (
	minPlausibleDurationSec = 300
	maxPlausibleDistanceM   = 15000
)

var flyderStatuses = map[string]string{
	"new":          domain.StatusPending,
	"processing":   domain.StatusInProgress,
	"retrying":     domain.StatusInProgress,
	"assigned":     domain.StatusInProgress,
	"finished":     domain.StatusCompleted,
	"cancelled":    domain.StatusCancelled,
	"exhausted":    domain.StatusCancelled,
	"assign_error": domain.StatusCancelled,
}

// MapStatus переводит статус Flyder в стандартный. Неизвестный код возвращается как есть,
// чтобы новые статусы источника не терялись.
func MapStatus(code string) string {
	if s, ok := flyderStatuses[code]; ok {
		return s
	}
	return code
}

// DetectAnomalies запускает независимые детекторы; строка может получить несколько меток.
func DetectAnomalies(row domain.SourceOrderRow) []string {
	anomalies := []string{}
	if row.Duration != nil && *row.Duration < minPlausibleDurationSec {
		anomalies = append(anomalies, AnomalySuspiciousDuration)
	}
	if row.Distance != nil && *row.Distance > maxPlausibleDistanceM {
		anomalies = append(anomalies, AnomalyExtremeDistance)
	}
	if row.Latitude == nil || row.Longitude == nil {
		anomalies = append(anomalies, AnomalyMissingGeolocation)
	}
	return anomalies
}

// UnitEconomics считает выручку/себестоимость/прибыль заказа по параметрам цены.
func UnitEconomics(p domain.Pricing) domain.Economics {
	cost := roundCents(p.RiderCostPerOrder + p.PlatformFee)
	revenue := roundCents(p.BaseDeliveryFee)
	return domain.Economics{
		Revenue:  revenue,
		Cost:     cost,
		Profit:   roundCents(revenue - cost),
		Currency: p.Currency,
	}
}

func roundCents(v float64) float64 { return math.Round(v*100) / 100 }

// Transformer — сборка документа заказа из строки источника.
type Transformer struct {
	Pricing domain.Pricing
}

func (t Transformer) Transform(row domain.SourceOrderRow, franchiseID string) (domain.Order, error) {
	if row.ID <= 0 {
		return domain.Order{}, fmt.Errorf("%w: invalid order id %d", domain.ErrTransform, row.ID)
	}
	if row.StoreID <= 0 {
		return domain.Order{}, fmt.Errorf("%w: invalid store id %d", domain.ErrTransform, row.StoreID)
	}
	if row.CreatedAt.IsZero() {
		return domain.Order{}, fmt.Errorf("%w: missing created_at", domain.ErrTransform)
	}
	if math.IsNaN(row.Amount) || math.IsInf(row.Amount, 0) {
		return domain.Order{}, fmt.Errorf("%w: amount is not a finite number", domain.ErrTransform)
	}
	updatedAt := row.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = row.CreatedAt
	}

	anomalies := DetectAnomalies(row)
	return domain.Order{
		ID:             domain.OrderDocID(row.ID),
		FlyderID:       row.ID,
		FranchiseID:    franchiseID,
		StoreID:        domain.StoreDocID(row.StoreID),
		Status:         MapStatus(row.Status),
		OriginalStatus: row.Status,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      updatedAt.UTC(),
		Amount:         row.Amount,
		PaymentMethod:  row.PaymentMethod,
		Economics:      UnitEconomics(t.Pricing),
		Distance:       row.Distance,
		Duration:       row.Duration,
		Customer: domain.Customer{
			Address: row.Street,
			City:    row.City,
			Zip:     row.PostalCode,
			Lat:     row.Latitude,
			Lng:     row.Longitude,
		},
		Quality: domain.Quality{
			Anomalies:    anomalies,
			HasAnomalies: len(anomalies) > 0,
		},
		Source: domain.SourceOrderImport,
	}, nil
}
