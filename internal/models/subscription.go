package models

import "time"

// BillingCycle внутренний словарь периодичности списаний.
type BillingCycle string

// Допустимые циклы подписки.
const (
	CycleWeekly     BillingCycle = "weekly"
	CycleBiweekly   BillingCycle = "biweekly"
	CycleMonthly    BillingCycle = "monthly"
	CycleQuarterly  BillingCycle = "quarterly"
	CycleSemiannual BillingCycle = "semiannual"
	CycleYearly     BillingCycle = "yearly"
	CycleUnknown    BillingCycle = "unknown"
)

// SubscriptionStatus статус рекуррентной подписки.
type SubscriptionStatus string

// Статусы подписки.
const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionOverdue   SubscriptionStatus = "overdue"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription запись о рекуррентном списании. Создаётся при оформлении,
// статус меняется событиями вебхука или запросом на отмену.
type Subscription struct {
	ID         int
	ExternalID string // Идентификатор подписки в шлюзе
	UserUID    string
	Plan       string
	Cycle      BillingCycle
	Amount     float64
	Status     SubscriptionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateSubscriptionCommand данные из JSON-запроса на оформление подписки.
type CreateSubscriptionCommand struct {
	Plan      string  `json:"plan" validate:"required"`
	Cycle     string  `json:"cycle" validate:"required,oneof=weekly biweekly monthly quarterly semiannual yearly"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	TaxID     string  `json:"tax_id" validate:"required"`
	CardToken string  `json:"card_token" validate:"required"`
}
