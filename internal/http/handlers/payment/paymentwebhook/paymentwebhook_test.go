package paymentwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessGatewayEvent(ctx context.Context, event, externalID, subscriptionID string) error {
	args := m.Called(ctx, event, externalID, subscriptionID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPaymentWebhookHandler(t *testing.T) {
	const webhookToken = "wh-secret-token"

	tests := []struct {
		name           string
		token          string
		body           string
		setupMock      func(m *MockService)
		expectedStatus int
	}{
		{
			name:  "payment confirmed event",
			token: webhookToken,
			body:  `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_123"}}`,
			setupMock: func(m *MockService) {
				m.On("ProcessGatewayEvent", mock.Anything, "PAYMENT_CONFIRMED", "pay_123", "").
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "subscription charge carries subscription id",
			token: webhookToken,
			body:  `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_124","subscription":"sub_9"}}`,
			setupMock: func(m *MockService) {
				m.On("ProcessGatewayEvent", mock.Anything, "PAYMENT_CONFIRMED", "pay_124", "sub_9").
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "unknown event still acknowledged",
			token: webhookToken,
			body:  `{"event":"PAYMENT_SPLIT_CANCELLED","payment":{"id":"pay_123"}}`,
			setupMock: func(m *MockService) {
				m.On("ProcessGatewayEvent", mock.Anything, "PAYMENT_SPLIT_CANCELLED", "pay_123", "").
					Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong token",
			token:          "wrong-token",
			body:           `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_123"}}`,
			setupMock:      func(m *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing token",
			token:          "",
			body:           `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_123"}}`,
			setupMock:      func(m *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid json",
			token:          webhookToken,
			body:           `{not-json`,
			setupMock:      func(m *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "processing error",
			token: webhookToken,
			body:  `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_123"}}`,
			setupMock: func(m *MockService) {
				m.On("ProcessGatewayEvent", mock.Anything, "PAYMENT_CONFIRMED", "pay_123", "").
					Return(assert.AnError)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService, webhookToken, nil)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("access-token", tt.token)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-request-id"))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			var resp map[string]any
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

			mockService.AssertExpectations(t)
		})
	}
}

func TestPaymentWebhookHandler_UnconfiguredToken(t *testing.T) {
	mockService := new(MockService)
	handler := New(newNoopLogger(), mockService, "", nil)

	body := []byte(`{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_123"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-request-id"))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	mockService.AssertNotCalled(t, "ProcessGatewayEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
