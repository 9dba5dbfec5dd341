package models

import "time"

// PaymentStatus внутренний статус платежа. Внешний словарь статусов шлюза
// переводится в эти значения через таблицу соответствия в пакете gateway.
type PaymentStatus string

// Допустимые статусы платежа.
// Переходы: pending -> confirmed | overdue | refunded | failed,
// confirmed -> refunded. Терминальные статусы иначе неизменяемы,
// confirmed достижим только через вебхук шлюза.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentUnknown   PaymentStatus = "unknown"
)

// Способы оплаты.
const (
	MethodPix        = "pix"
	MethodBoleto     = "boleto"
	MethodCreditCard = "credit_card"
)

// Виды оплачиваемых продуктов.
const (
	ProductCourse = "course"
	ProductMerch  = "merch"
)

// CanTransition сообщает, допустим ли переход платежа в статус next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case PaymentPending:
		switch next {
		case PaymentConfirmed, PaymentOverdue, PaymentRefunded, PaymentFailed:
			return true
		}
		return false
	case PaymentConfirmed:
		return next == PaymentRefunded
	case PaymentOverdue:
		// Просроченный счёт всё ещё может быть оплачен или отменён.
		switch next {
		case PaymentConfirmed, PaymentFailed, PaymentRefunded:
			return true
		}
		return false
	default:
		return false
	}
}

// Payment одна запись на каждую попытку списания. Статус меняется только
// событиями вебхука, прямой записи статуса клиентом нет.
type Payment struct {
	ID          int
	ExternalID  string  // Идентификатор платежа в шлюзе
	UserUID     string  // Владелец платежа
	Method      string  // pix, boleto или credit_card
	Amount      float64 // Сумма в BRL
	Description string
	Status      PaymentStatus
	InvoiceURL  string // Ссылка на счёт (boleto/карта)
	PixQrCode   string // Код для оплаты PIX
	ProductKind string // course или merch: определяет текст письма об оплате; заказ печати привязывается к merch-платежу вебхуком партнёра
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePaymentCommand данные из JSON-запроса на создание платежа.
type CreatePaymentCommand struct {
	Method      string  `json:"method" validate:"required,oneof=pix boleto credit_card"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	TaxID       string  `json:"tax_id" validate:"required"`
	Description string  `json:"description" validate:"required"`
	ProductKind string  `json:"product_kind" validate:"required,oneof=course merch"`
	CardToken   string  `json:"card_token,omitempty"`
}
