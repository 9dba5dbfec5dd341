// Package gateway реализует клиент платёжного шлюза Cobrafácil:
// поиск и создание клиентов, платежи PIX/boleto/карта, подписки и
// токенизация карт. Словарь статусов шлюза переводится во внутренние
// статусы через таблицы в status.go.
package gateway

import "time"

// Customer клиент в шлюзе.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
}

// CreateCustomerRequest запрос на создание клиента.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
	Phone   string `json:"phone,omitempty"`
}

type customerListResponse struct {
	Data []Customer `json:"data"`
}

// CreatePaymentRequest запрос на создание платежа.
type CreatePaymentRequest struct {
	Customer          string  `json:"customer"`    // ID клиента в шлюзе
	BillingType       string  `json:"billingType"` // PIX, BOLETO или CREDIT_CARD
	Value             float64 `json:"value"`       // сумма в BRL
	DueDate           string  `json:"dueDate"`     // формат 2006-01-02
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"` // наш идентификатор
	CreditCardToken   string  `json:"creditCardToken,omitempty"`
}

// PaymentResponse ответ шлюза на создание или чтение платежа.
type PaymentResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"` // словарь шлюза, см. status.go
	Value       float64 `json:"value"`
	BillingType string  `json:"billingType"`
	InvoiceURL  string  `json:"invoiceUrl,omitempty"`
	BankSlipURL string  `json:"bankSlipUrl,omitempty"`
	PixQrCode   string  `json:"pixQrCode,omitempty"`
	DueDate     string  `json:"dueDate,omitempty"`
	CreatedAt   time.Time `json:"dateCreated"`
}

// CreateSubscriptionRequest запрос на создание рекуррентной подписки.
type CreateSubscriptionRequest struct {
	Customer        string  `json:"customer"`
	BillingType     string  `json:"billingType"`
	Value           float64 `json:"value"`
	Cycle           string  `json:"cycle"` // словарь шлюза, см. status.go
	NextDueDate     string  `json:"nextDueDate"`
	Description     string  `json:"description,omitempty"`
	CreditCardToken string  `json:"creditCardToken,omitempty"`
}

// SubscriptionResponse ответ шлюза на операции с подпиской.
type SubscriptionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Cycle  string `json:"cycle"`
}

// CreditCard данные карты для токенизации. Никогда не сохраняются.
type CreditCard struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	Ccv         string `json:"ccv"`
}

// TokenizeCardRequest запрос на токенизацию карты.
type TokenizeCardRequest struct {
	Customer   string     `json:"customer"`
	CreditCard CreditCard `json:"creditCard"`
}

// TokenizeCardResponse ответ с токеном карты.
type TokenizeCardResponse struct {
	CreditCardToken string `json:"creditCardToken"`
	CreditCardBrand string `json:"creditCardBrand,omitempty"`
	LastFour        string `json:"creditCardNumber,omitempty"`
}
