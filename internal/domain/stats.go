package domain

// RowError — ошибка обработки одной строки.
type RowError struct {
	RecordID string `json:"recordId"`
	Message  string `json:"message"`
}

// RunStats — итог прогона. При нормальном завершении
// TotalFetched == SyncedOrders + SkippedOrders + FailedOrders.
type RunStats struct {
	TotalFetched     int        `json:"totalFetched"`
	SyncedOrders     int        `json:"syncedOrders"`
	SkippedOrders    int        `json:"skippedOrders"`
	FailedOrders     int        `json:"failedOrders"`
	NewStoresCreated int        `json:"newStoresCreated"`
	Errors           []RowError `json:"errors"`
	// DroppedErrors — сколько ошибок не попало в Errors из-за ограничения размера.
	DroppedErrors int `json:"droppedErrors,omitempty"`
}

// SyncResponse — ответ на успешный прогон.
type SyncResponse struct {
	Success  bool     `json:"success"`
	Progress RunStats `json:"progress"`
}

// Pricing — параметры юнит-экономики. Пока одинаковы для всех франшиз.
type Pricing struct {
	BaseDeliveryFee   float64 `yaml:"base_delivery_fee" json:"baseDeliveryFee"`
	RiderCostPerOrder float64 `yaml:"rider_cost_per_order" json:"riderCostPerOrder"`
	PlatformFee       float64 `yaml:"platform_fee" json:"platformFee"`
	Currency          string  `yaml:"currency" json:"currency"`
}

// DefaultPricing — текущие фиксированные значения.
func DefaultPricing() Pricing {
	return Pricing{
		BaseDeliveryFee:   3.50,
		RiderCostPerOrder: 2.00,
		PlatformFee:       0.50,
		Currency:          "EUR",
	}
}
