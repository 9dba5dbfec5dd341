package tracking

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aprendaplus/platform-backend/internal/http/middlewarectx"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/services/fulfillment"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GetTracking(ctx context.Context, userUID string, orderID int) (*models.FulfillmentOrder, error) {
	args := m.Called(ctx, userUID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FulfillmentOrder), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTrackingHandler(t *testing.T) {
	tests := []struct {
		name           string
		userUID        string
		id             string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:    "shipped order",
			userUID: "user-1",
			id:      "7",
			setupMock: func(m *MockService) {
				m.On("GetTracking", mock.Anything, "user-1", 7).
					Return(&models.FulfillmentOrder{
						ID:             7,
						Status:         models.FulfillmentShipped,
						TrackingNumber: "BR123",
						TrackingURL:    "https://track/BR123",
						Carrier:        "correios",
					}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing user in context",
			userUID:        "",
			id:             "7",
			setupMock:      func(m *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "unauthorized",
		},
		{
			name:           "invalid order id",
			userUID:        "user-1",
			id:             "abc",
			setupMock:      func(m *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid order id",
		},
		{
			name:    "order not found",
			userUID: "user-1",
			id:      "99",
			setupMock: func(m *MockService) {
				m.On("GetTracking", mock.Anything, "user-1", 99).
					Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "order not found",
		},
		{
			name:    "order of another user",
			userUID: "user-2",
			id:      "7",
			setupMock: func(m *MockService) {
				m.On("GetTracking", mock.Anything, "user-2", 7).
					Return(nil, fulfillment.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedError:  "forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tt.id+"/tracking", nil)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "test-request-id")
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			req = req.WithContext(ctx)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			var resp map[string]any
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

			if tt.expectedError != "" {
				assert.Contains(t, resp["error"], tt.expectedError)
			} else {
				data := resp["data"].(map[string]any)
				assert.Equal(t, "BR123", data["tracking_number"])
				assert.Equal(t, string(models.FulfillmentShipped), data["status"])
			}

			mockService.AssertExpectations(t)
		})
	}
}
