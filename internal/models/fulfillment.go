package models

import "time"

// Провайдеры печати по требованию.
const (
	ProviderPrintify = "printify"
	ProviderProdigi  = "prodigi"
)

// FulfillmentStatus статус заказа печати по требованию.
type FulfillmentStatus string

// Статусы заказа фулфилмента.
const (
	FulfillmentCreated      FulfillmentStatus = "created"
	FulfillmentInProduction FulfillmentStatus = "in_production"
	FulfillmentShipped      FulfillmentStatus = "shipped"
	FulfillmentDelivered    FulfillmentStatus = "delivered"
	FulfillmentCancelled    FulfillmentStatus = "cancelled"
)

// FulfillmentOrder заказ у партнёра печати по требованию.
// Обновляется вебхуками партнёра (shipped/delivered) и опросом трекинга.
// NotifiedAt защищает от повторной отправки письма о доставке
// при повторной доставке того же события вебхука.
type FulfillmentOrder struct {
	ID             int
	ExternalID     string // Идентификатор заказа у партнёра
	Provider       string // printify или prodigi
	UserUID        string
	PaymentID      int // Платёж, породивший заказ
	Status         FulfillmentStatus
	TrackingNumber string
	TrackingURL    string
	Carrier        string
	NotifiedAt     *time.Time // Время отправки письма о доставке
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
