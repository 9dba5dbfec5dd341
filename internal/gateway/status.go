package gateway

import (
	"fmt"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// Словарь статусов платежа шлюза.
const (
	extPending             = "PENDING"
	extAwaitingRisk        = "AWAITING_RISK_ANALYSIS"
	extConfirmed           = "CONFIRMED"
	extReceived            = "RECEIVED"
	extReceivedInCash      = "RECEIVED_IN_CASH"
	extOverdue             = "OVERDUE"
	extRefunded            = "REFUNDED"
	extRefundRequested     = "REFUND_REQUESTED"
	extChargebackRequested = "CHARGEBACK_REQUESTED"
	extChargebackDispute   = "CHARGEBACK_DISPUTE"
	extDeleted             = "DELETED"
	extCancelled           = "CANCELLED"
)

// MapPaymentStatus переводит статус платежа из словаря шлюза во внутренний.
// Таблица тотальна: любое неизвестное значение явно отображается в
// PaymentUnknown и никогда не применяется к записи молча.
func MapPaymentStatus(external string) models.PaymentStatus {
	switch external {
	case extPending, extAwaitingRisk:
		return models.PaymentPending
	case extConfirmed, extReceived, extReceivedInCash:
		return models.PaymentConfirmed
	case extOverdue:
		return models.PaymentOverdue
	case extRefunded, extRefundRequested:
		return models.PaymentRefunded
	case extChargebackRequested, extChargebackDispute, extDeleted, extCancelled:
		return models.PaymentFailed
	default:
		return models.PaymentUnknown
	}
}

// Словарь событий вебхука шлюза.
const (
	EventPaymentCreated   = "PAYMENT_CREATED"
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentOverdue   = "PAYMENT_OVERDUE"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"
	EventPaymentDeleted   = "PAYMENT_DELETED"
)

// MapPaymentEvent переводит событие вебхука в целевой внутренний статус.
// Второй результат false для событий, не меняющих статус.
func MapPaymentEvent(event string) (models.PaymentStatus, bool) {
	switch event {
	case EventPaymentCreated:
		return models.PaymentPending, false // платёж уже создан нами со статусом pending
	case EventPaymentConfirmed, EventPaymentReceived:
		return models.PaymentConfirmed, true
	case EventPaymentOverdue:
		return models.PaymentOverdue, true
	case EventPaymentRefunded:
		return models.PaymentRefunded, true
	case EventPaymentDeleted:
		return models.PaymentFailed, true
	default:
		return models.PaymentUnknown, false
	}
}

// Словарь циклов подписки шлюза.
const (
	extWeekly       = "WEEKLY"
	extBiweekly     = "BIWEEKLY"
	extMonthly      = "MONTHLY"
	extQuarterly    = "QUARTERLY"
	extSemiannually = "SEMIANNUALLY"
	extYearly       = "YEARLY"
)

// ExternalCycle переводит внутренний цикл в словарь шлюза.
// Неизвестный цикл — ошибка до обращения к шлюзу.
func ExternalCycle(cycle models.BillingCycle) (string, error) {
	switch cycle {
	case models.CycleWeekly:
		return extWeekly, nil
	case models.CycleBiweekly:
		return extBiweekly, nil
	case models.CycleMonthly:
		return extMonthly, nil
	case models.CycleQuarterly:
		return extQuarterly, nil
	case models.CycleSemiannual:
		return extSemiannually, nil
	case models.CycleYearly:
		return extYearly, nil
	default:
		return "", fmt.Errorf("unsupported billing cycle: %s", cycle)
	}
}

// MapBillingCycle переводит цикл из словаря шлюза во внутренний.
func MapBillingCycle(external string) models.BillingCycle {
	switch external {
	case extWeekly:
		return models.CycleWeekly
	case extBiweekly:
		return models.CycleBiweekly
	case extMonthly:
		return models.CycleMonthly
	case extQuarterly:
		return models.CycleQuarterly
	case extSemiannually:
		return models.CycleSemiannual
	case extYearly:
		return models.CycleYearly
	default:
		return models.CycleUnknown
	}
}

// MapSubscriptionStatus переводит статус подписки шлюза во внутренний.
func MapSubscriptionStatus(external string) models.SubscriptionStatus {
	switch external {
	case "ACTIVE":
		return models.SubscriptionActive
	case "OVERDUE":
		return models.SubscriptionOverdue
	default:
		// EXPIRED, INACTIVE и всё прочее считается отменённой подпиской.
		return models.SubscriptionCancelled
	}
}
