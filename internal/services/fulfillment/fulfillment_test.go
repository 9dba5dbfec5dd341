package fulfillment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/printify"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateFulfillmentOrder(ctx context.Context, o models.FulfillmentOrder) (int, error) {
	args := m.Called(ctx, o)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetFulfillmentOrder(ctx context.Context, id int) (*models.FulfillmentOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FulfillmentOrder), args.Error(1)
}

func (m *MockRepository) GetFulfillmentOrderByExternalID(ctx context.Context, provider, externalID string) (*models.FulfillmentOrder, error) {
	args := m.Called(ctx, provider, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FulfillmentOrder), args.Error(1)
}

func (m *MockRepository) UpdateFulfillmentOrderTracking(ctx context.Context, provider, externalID string,
	status models.FulfillmentStatus, trackingNumber, trackingURL, carrier string) (bool, error) {
	args := m.Called(ctx, provider, externalID, status, trackingNumber, trackingURL, carrier)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MarkFulfillmentOrderNotified(ctx context.Context, orderID int) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

type MockPoller struct {
	mock.Mock
}

func (m *MockPoller) GetOrder(orderID string) (*printify.Order, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printify.Order), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_HandleProviderEvent(t *testing.T) {
	knownOrder := &models.FulfillmentOrder{
		ID:         5,
		ExternalID: "ord_1",
		Provider:   models.ProviderPrintify,
		UserUID:    "uid-1",
		Status:     models.FulfillmentShipped,
	}
	owner := &models.User{UID: "uid-1", Email: "maria@example.com", Name: "Maria"}

	tests := []struct {
		name          string
		evt           ProviderEvent
		setupMocks    func(*MockRepository, *MockPublisher)
		expectedError bool
	}{
		{
			name: "shipped event updates tracking",
			evt: ProviderEvent{
				Provider:       models.ProviderPrintify,
				OrderID:        "ord_1",
				Status:         models.FulfillmentShipped,
				TrackingNumber: "BR123",
				TrackingURL:    "https://track/BR123",
				Carrier:        "Correios",
			},
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("GetFulfillmentOrderByExternalID", mock.Anything, "printify", "ord_1").Return(knownOrder, nil).Once()
				r.On("UpdateFulfillmentOrderTracking", mock.Anything, "printify", "ord_1",
					models.FulfillmentShipped, "BR123", "https://track/BR123", "Correios").Return(true, nil).Once()
			},
		},
		{
			name: "first delivered event sends exactly one email",
			evt: ProviderEvent{
				Provider:       models.ProviderPrintify,
				OrderID:        "ord_1",
				Status:         models.FulfillmentDelivered,
				TrackingNumber: "BR123",
			},
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("GetFulfillmentOrderByExternalID", mock.Anything, "printify", "ord_1").Return(knownOrder, nil).Once()
				r.On("UpdateFulfillmentOrderTracking", mock.Anything, "printify", "ord_1",
					models.FulfillmentDelivered, "BR123", "", "").Return(true, nil).Once()
				r.On("MarkFulfillmentOrderNotified", mock.Anything, 5).Return(true, nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").Return(owner, nil).Once()
				p.On("Publish", "delivery", mock.MatchedBy(func(msg any) bool {
					n, ok := msg.(models.DeliveryNotification)
					return ok && n.Email == "maria@example.com"
				})).Return(nil).Once()
			},
		},
		{
			name: "redelivered delivered event does not send email again",
			evt: ProviderEvent{
				Provider: models.ProviderPrintify,
				OrderID:  "ord_1",
				Status:   models.FulfillmentDelivered,
			},
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("GetFulfillmentOrderByExternalID", mock.Anything, "printify", "ord_1").Return(knownOrder, nil).Once()
				r.On("UpdateFulfillmentOrderTracking", mock.Anything, "printify", "ord_1",
					models.FulfillmentDelivered, "", "", "").Return(false, nil).Once()
				r.On("MarkFulfillmentOrderNotified", mock.Anything, 5).Return(false, nil).Once()
			},
		},
		{
			name: "unknown order with metadata creates record",
			evt: ProviderEvent{
				Provider:  models.ProviderProdigi,
				OrderID:   "ord_new",
				Status:    models.FulfillmentInProduction,
				UserUID:   "uid-1",
				PaymentID: 7,
			},
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("GetFulfillmentOrderByExternalID", mock.Anything, "prodigi", "ord_new").
					Return(nil, repository.ErrNotFound).Once()
				r.On("CreateFulfillmentOrder", mock.Anything, mock.MatchedBy(func(o models.FulfillmentOrder) bool {
					return o.ExternalID == "ord_new" && o.UserUID == "uid-1" && o.PaymentID == 7
				})).Return(9, nil).Once()
				r.On("UpdateFulfillmentOrderTracking", mock.Anything, "prodigi", "ord_new",
					models.FulfillmentInProduction, "", "", "").Return(true, nil).Once()
			},
		},
		{
			name: "unknown order without metadata is skipped",
			evt: ProviderEvent{
				Provider: models.ProviderProdigi,
				OrderID:  "ord_ghost",
				Status:   models.FulfillmentShipped,
			},
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("GetFulfillmentOrderByExternalID", mock.Anything, "prodigi", "ord_ghost").
					Return(nil, repository.ErrNotFound).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			pub := new(MockPublisher)
			service := New(repo, pub, nil, nil, newNoopLogger())

			tt.setupMocks(repo, pub)

			err := service.HandleProviderEvent(context.Background(), tt.evt)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestService_GetTracking(t *testing.T) {
	t.Run("foreign order rejected", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetFulfillmentOrder", mock.Anything, 5).Return(&models.FulfillmentOrder{
			ID: 5, UserUID: "uid-1",
		}, nil).Once()

		service := New(repo, new(MockPublisher), nil, nil, newNoopLogger())
		_, err := service.GetTracking(context.Background(), "uid-2", 5)
		assert.ErrorIs(t, err, ErrForbidden)
		repo.AssertExpectations(t)
	})

	t.Run("printify order without tracking triggers poll", func(t *testing.T) {
		repo := new(MockRepository)
		poller := new(MockPoller)

		repo.On("GetFulfillmentOrder", mock.Anything, 5).Return(&models.FulfillmentOrder{
			ID: 5, ExternalID: "ord_1", Provider: models.ProviderPrintify,
			UserUID: "uid-1", Status: models.FulfillmentInProduction,
		}, nil).Once()
		poller.On("GetOrder", "ord_1").Return(&printify.Order{
			ID:     "ord_1",
			Status: "fulfilled",
			Shipments: []struct {
				Carrier string `json:"carrier"`
				Number  string `json:"number"`
				URL     string `json:"url"`
			}{{Carrier: "Correios", Number: "BR123", URL: "https://track/BR123"}},
		}, nil).Once()
		repo.On("UpdateFulfillmentOrderTracking", mock.Anything, "printify", "ord_1",
			models.FulfillmentShipped, "BR123", "https://track/BR123", "Correios").Return(true, nil).Once()

		service := New(repo, new(MockPublisher), nil, poller, newNoopLogger())
		order, err := service.GetTracking(context.Background(), "uid-1", 5)
		assert.NoError(t, err)
		assert.Equal(t, models.FulfillmentShipped, order.Status)
		assert.Equal(t, "BR123", order.TrackingNumber)
		repo.AssertExpectations(t)
		poller.AssertExpectations(t)
	})

	t.Run("poll failure falls back to stored state", func(t *testing.T) {
		repo := new(MockRepository)
		poller := new(MockPoller)

		stored := &models.FulfillmentOrder{
			ID: 5, ExternalID: "ord_1", Provider: models.ProviderPrintify,
			UserUID: "uid-1", Status: models.FulfillmentShipped, TrackingNumber: "BR123",
		}
		repo.On("GetFulfillmentOrder", mock.Anything, 5).Return(stored, nil).Once()
		poller.On("GetOrder", "ord_1").Return(nil, printify.ErrUnavailable).Once()

		service := New(repo, new(MockPublisher), nil, poller, newNoopLogger())
		order, err := service.GetTracking(context.Background(), "uid-1", 5)
		assert.NoError(t, err)
		assert.Equal(t, "BR123", order.TrackingNumber)
		repo.AssertExpectations(t)
		poller.AssertExpectations(t)
	})

	t.Run("delivered order is not polled", func(t *testing.T) {
		repo := new(MockRepository)
		poller := new(MockPoller)

		repo.On("GetFulfillmentOrder", mock.Anything, 5).Return(&models.FulfillmentOrder{
			ID: 5, ExternalID: "ord_1", Provider: models.ProviderPrintify,
			UserUID: "uid-1", Status: models.FulfillmentDelivered,
		}, nil).Once()

		service := New(repo, new(MockPublisher), nil, poller, newNoopLogger())
		order, err := service.GetTracking(context.Background(), "uid-1", 5)
		assert.NoError(t, err)
		assert.Equal(t, models.FulfillmentDelivered, order.Status)
		repo.AssertExpectations(t)
		poller.AssertExpectations(t)
	})
}

func TestMapProviderStatuses(t *testing.T) {
	assert.Equal(t, models.FulfillmentInProduction, MapPrintifyStatus("in-production"))
	assert.Equal(t, models.FulfillmentShipped, MapPrintifyStatus("fulfilled"))
	assert.Equal(t, models.FulfillmentCancelled, MapPrintifyStatus("canceled"))
	assert.Equal(t, models.FulfillmentCreated, MapPrintifyStatus("on-hold"))

	assert.Equal(t, models.FulfillmentShipped, MapProdigiStatus("Shipped"))
	assert.Equal(t, models.FulfillmentDelivered, MapProdigiStatus("Delivered"))
	assert.Equal(t, models.FulfillmentCreated, MapProdigiStatus("something-else"))
}
