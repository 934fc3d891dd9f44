package domain

import (
	"strconv"
	"time"
)

// Коллекции целевого хранилища документов.
const (
	CollectionOrders   = "orders"
	CollectionStores   = "stores"
	CollectionMappings = "franchise_mappings"
)

// Метки происхождения документов, созданных синхронизацией.
const (
	SourceOrderImport = "flyder_import"
	SourceStoreImport = "flyder_auto_import"

	storeIDPrefix = "flyder_"
)

// Стандартизованные статусы заказа.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	StoreStatusActive = "active"
)

// SourceOrderRow — строка orders ⋈ stores из Flyder, уже разобранная в строгие типы.
type SourceOrderRow struct {
	ID            int64
	BusinessID    int64
	StoreID       int64
	StoreName     string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Amount        float64
	PaymentMethod string
	Distance      *float64 // метры
	Duration      *float64 // секунды
	Street        *string
	City          *string
	PostalCode    *string
	Latitude      *float64
	Longitude     *float64
}

// FetchedRow — результат чтения одной строки: либо Row, либо ошибка разбора Err.
// RecordID заполнен всегда, даже если идентификатор не удалось разобрать.
type FetchedRow struct {
	RecordID string
	Row      SourceOrderRow
	Err      error
}

// StoreDocID — детерминированный id документа магазина.
func StoreDocID(sourceStoreID int64) string {
	return storeIDPrefix + strconv.FormatInt(sourceStoreID, 10)
}

// OrderDocID — детерминированный id документа заказа; повторный прогон перезаписывает, а не дублирует.
func OrderDocID(sourceOrderID int64) string {
	return strconv.FormatInt(sourceOrderID, 10)
}

// Economics — юнит-экономика заказа.
type Economics struct {
	Revenue  float64 `json:"revenue"`
	Cost     float64 `json:"cost"`
	Profit   float64 `json:"profit"`
	Currency string  `json:"currency"`
}

// Customer — адрес и координаты клиента; поля могут отсутствовать (анонимизация).
type Customer struct {
	Address *string  `json:"address"`
	City    *string  `json:"city"`
	Zip     *string  `json:"zip"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// Quality — результат проверок качества данных.
type Quality struct {
	Anomalies    []string `json:"anomalies"`
	HasAnomalies bool     `json:"hasAnomalies"`
}

// Order — документ заказа в целевом хранилище (Repaart).
type Order struct {
	ID             string    `json:"id"`
	FlyderID       int64     `json:"flyderId"`
	FranchiseID    string    `json:"franchiseId"`
	StoreID        string    `json:"storeId"`
	Status         string    `json:"status"`
	OriginalStatus string    `json:"originalStatus"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Amount         float64   `json:"amount"`
	PaymentMethod  string    `json:"paymentMethod"`
	Economics      Economics `json:"economics"`
	Distance       *float64  `json:"distance"`
	Duration       *float64  `json:"duration"`
	Customer       Customer  `json:"customer"`
	Quality
	Source string `json:"source"`
}

// Store — документ магазина, создаваемый лениво при первом заказе.
type Store struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FranchiseID string    `json:"franchiseId"`
	FlyderID    int64     `json:"flyderId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	Source      string    `json:"source"`
}

// FranchiseMapping — соответствие бизнеса Flyder франшизе Repaart.
type FranchiseMapping struct {
	FlyderBusinessID   int64  `json:"flyderBusinessId"`
	RepaartFranchiseID string `json:"repaartFranchiseId"`
}
