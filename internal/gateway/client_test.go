package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test_api_key", nil)
}

func TestGetOrCreateCustomer_ExistingCustomer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test_api_key", r.Header.Get("access_token"))
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "52998224725", r.URL.Query().Get("cpfCnpj"))

		_ = json.NewEncoder(w).Encode(customerListResponse{Data: []Customer{
			{ID: "cus_001", Name: "Maria", Email: "maria@example.com", CpfCnpj: "52998224725"},
		}})
	})

	customer, err := client.GetOrCreateCustomer("Maria", "maria@example.com", "529.982.247-25")
	require.NoError(t, err)
	assert.Equal(t, "cus_001", customer.ID)
}

func TestGetOrCreateCustomer_CreatesWhenMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(customerListResponse{})
		case http.MethodPost:
			var req CreateCustomerRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "52998224725", req.CpfCnpj)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Customer{ID: "cus_new", Name: req.Name})
		}
	})

	customer, err := client.GetOrCreateCustomer("Maria", "maria@example.com", "529.982.247-25")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", customer.ID)
}

func TestGetOrCreateCustomer_InvalidTaxID(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	// Невалидный CPF отклоняется до обращения к шлюзу.
	_, err := client.GetOrCreateCustomer("Maria", "maria@example.com", "111.111.111-11")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCreatePixPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		var req CreatePaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "PIX", req.BillingType)
		assert.Equal(t, 499.90, req.Value)
		assert.Equal(t, "pay-ref-1", req.ExternalReference)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PaymentResponse{
			ID:        "pay_001",
			Status:    "PENDING",
			Value:     req.Value,
			PixQrCode: "00020126...",
		})
	})

	resp, err := client.CreatePixPayment("cus_001", 499.90, "2026-09-10", "Curso IA", "pay-ref-1")
	require.NoError(t, err)
	assert.Equal(t, "pay_001", resp.ID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.NotEmpty(t, resp.PixQrCode)
}

func TestCreateCardPayment_SendsToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req CreatePaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CREDIT_CARD", req.BillingType)
		assert.Equal(t, "tok_abc", req.CreditCardToken)
		_ = json.NewEncoder(w).Encode(PaymentResponse{ID: "pay_002", Status: "CONFIRMED"})
	})

	resp, err := client.CreateCardPayment("cus_001", 100, "2026-09-10", "Curso", "ref", "tok_abc")
	require.NoError(t, err)
	assert.Equal(t, "pay_002", resp.ID)
}

func TestCreateSubscription(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions", r.URL.Path)
		var req CreateSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "MONTHLY", req.Cycle)
		_ = json.NewEncoder(w).Encode(SubscriptionResponse{ID: "sub_001", Status: "ACTIVE", Cycle: req.Cycle})
	})

	resp, err := client.CreateSubscription(CreateSubscriptionRequest{
		Customer:    "cus_001",
		BillingType: "CREDIT_CARD",
		Value:       59.90,
		Cycle:       "MONTHLY",
		NextDueDate: "2026-10-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_001", resp.ID)
}

func TestClient_GatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetPayment("pay_001")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTokenizeCard(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/creditCard/tokenize", r.URL.Path)
		_ = json.NewEncoder(w).Encode(TokenizeCardResponse{CreditCardToken: "tok_xyz"})
	})

	resp, err := client.TokenizeCard(TokenizeCardRequest{
		Customer: "cus_001",
		CreditCard: CreditCard{
			HolderName:  "MARIA SILVA",
			Number:      "5162306219378829",
			ExpiryMonth: "05",
			ExpiryYear:  "2028",
			Ccv:         "318",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "tok_xyz", resp.CreditCardToken)
}
