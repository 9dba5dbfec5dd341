package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aprendaplus/platform-backend/internal/lib/taxid"
	"github.com/aprendaplus/platform-backend/internal/metrics"
)

// ErrUnavailable возвращается, когда шлюз недоступен или ответил
// неожиданным статусом. Обработчики переводят её в 502.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Client клиент API Cobrafácil.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient создаёт новый клиент шлюза.
func NewClient(apiURL, apiKey string, m *metrics.Metrics) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    m,
	}
}

func (c *Client) newRequest(method, path string, body any) (*http.Request, error) {
	reqURL := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, reqURL, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do выполняет запрос, проверяет статус и декодирует ответ в out.
func (c *Client) do(endpoint string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.observe(endpoint, fmt.Sprintf("%d", resp.StatusCode), start)
		return fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}
	c.observe(endpoint, "ok", start)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func (c *Client) observe(endpoint, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayRequests.WithLabelValues(endpoint, status).Inc()
	c.metrics.GatewayLatency.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}

// FindCustomerByTaxID ищет клиента по CPF/CNPJ.
// Возвращает false без ошибки, если клиент не найден.
func (c *Client) FindCustomerByTaxID(taxID string) (*Customer, bool, error) {
	req, err := c.newRequest(http.MethodGet, "/customers?cpfCnpj="+url.QueryEscape(taxID), nil)
	if err != nil {
		return nil, false, err
	}
	var list customerListResponse
	if err := c.do("find_customer", req, &list); err != nil {
		return nil, false, err
	}
	if len(list.Data) == 0 {
		return nil, false, nil
	}
	return &list.Data[0], true, nil
}

// CreateCustomer создаёт клиента в шлюзе.
func (c *Client) CreateCustomer(params CreateCustomerRequest) (*Customer, error) {
	req, err := c.newRequest(http.MethodPost, "/customers", params)
	if err != nil {
		return nil, err
	}
	var customer Customer
	if err := c.do("create_customer", req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetOrCreateCustomer валидирует CPF/CNPJ, ищет клиента по нему
// и создаёт нового, если не найден.
func (c *Client) GetOrCreateCustomer(name, email, rawTaxID string) (*Customer, error) {
	digits, _, err := taxid.Validate(rawTaxID)
	if err != nil {
		return nil, err
	}
	customer, found, err := c.FindCustomerByTaxID(digits)
	if err != nil {
		return nil, err
	}
	if found {
		return customer, nil
	}
	return c.CreateCustomer(CreateCustomerRequest{
		Name:    name,
		Email:   email,
		CpfCnpj: digits,
	})
}

// CreatePayment создаёт платёж. Вызывающий код заполняет BillingType
// через типизированные обёртки ниже.
func (c *Client) CreatePayment(params CreatePaymentRequest) (*PaymentResponse, error) {
	req, err := c.newRequest(http.MethodPost, "/payments", params)
	if err != nil {
		return nil, err
	}
	var payment PaymentResponse
	if err := c.do("create_payment", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreatePixPayment создаёт платёж PIX.
func (c *Client) CreatePixPayment(customerID string, value float64, dueDate, description, externalRef string) (*PaymentResponse, error) {
	return c.CreatePayment(CreatePaymentRequest{
		Customer:          customerID,
		BillingType:       "PIX",
		Value:             value,
		DueDate:           dueDate,
		Description:       description,
		ExternalReference: externalRef,
	})
}

// CreateBoletoPayment создаёт платёж boleto.
func (c *Client) CreateBoletoPayment(customerID string, value float64, dueDate, description, externalRef string) (*PaymentResponse, error) {
	return c.CreatePayment(CreatePaymentRequest{
		Customer:          customerID,
		BillingType:       "BOLETO",
		Value:             value,
		DueDate:           dueDate,
		Description:       description,
		ExternalReference: externalRef,
	})
}

// CreateCardPayment создаёт платёж по токенизированной карте.
func (c *Client) CreateCardPayment(customerID string, value float64, dueDate, description, externalRef, cardToken string) (*PaymentResponse, error) {
	return c.CreatePayment(CreatePaymentRequest{
		Customer:          customerID,
		BillingType:       "CREDIT_CARD",
		Value:             value,
		DueDate:           dueDate,
		Description:       description,
		ExternalReference: externalRef,
		CreditCardToken:   cardToken,
	})
}

// GetPayment читает платёж по идентификатору шлюза.
// Используется сверкой статусов.
func (c *Client) GetPayment(id string) (*PaymentResponse, error) {
	req, err := c.newRequest(http.MethodGet, "/payments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var payment PaymentResponse
	if err := c.do("get_payment", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// TokenizeCard обменивает реквизиты карты на токен.
func (c *Client) TokenizeCard(params TokenizeCardRequest) (*TokenizeCardResponse, error) {
	req, err := c.newRequest(http.MethodPost, "/creditCard/tokenize", params)
	if err != nil {
		return nil, err
	}
	var token TokenizeCardResponse
	if err := c.do("tokenize_card", req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// CreateSubscription создаёт рекуррентную подписку.
func (c *Client) CreateSubscription(params CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	req, err := c.newRequest(http.MethodPost, "/subscriptions", params)
	if err != nil {
		return nil, err
	}
	var sub SubscriptionResponse
	if err := c.do("create_subscription", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription отменяет подписку в шлюзе.
func (c *Client) CancelSubscription(id string) error {
	req, err := c.newRequest(http.MethodDelete, "/subscriptions/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do("cancel_subscription", req, nil)
}
