package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aprendaplus/platform-backend/internal/gateway"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetPaymentByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockRepository) TransitionPaymentStatus(ctx context.Context, externalID string, next models.PaymentStatus) (bool, error) {
	args := m.Called(ctx, externalID, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockRepository) UpdateSubscriptionStatus(ctx context.Context, externalID string, status models.SubscriptionStatus) (bool, error) {
	args := m.Called(ctx, externalID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) SetGatewayCustomerID(ctx context.Context, userUID, customerID string) error {
	args := m.Called(ctx, userUID, customerID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetOrCreateCustomer(name, email, rawTaxID string) (*gateway.Customer, error) {
	args := m.Called(name, email, rawTaxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Customer), args.Error(1)
}

func (m *MockGateway) CreatePixPayment(customerID string, value float64, dueDate, description, externalRef string) (*gateway.PaymentResponse, error) {
	args := m.Called(customerID, value, dueDate, description, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentResponse), args.Error(1)
}

func (m *MockGateway) CreateBoletoPayment(customerID string, value float64, dueDate, description, externalRef string) (*gateway.PaymentResponse, error) {
	args := m.Called(customerID, value, dueDate, description, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentResponse), args.Error(1)
}

func (m *MockGateway) CreateCardPayment(customerID string, value float64, dueDate, description, externalRef, cardToken string) (*gateway.PaymentResponse, error) {
	args := m.Called(customerID, value, dueDate, description, externalRef, cardToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentResponse), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_CreatePayment(t *testing.T) {
	userWithCustomer := &models.User{
		UID:               "uid-1",
		Email:             "maria@example.com",
		Name:              "Maria",
		GatewayCustomerID: "cus_1",
	}
	userWithoutCustomer := &models.User{
		UID:   "uid-2",
		Email: "joao@example.com",
		Name:  "João",
	}

	tests := []struct {
		name          string
		userUID       string
		cmd           models.CreatePaymentCommand
		setupMocks    func(*MockRepository, *MockGateway)
		expectedError error
		check         func(*testing.T, *models.Payment)
	}{
		{
			name:    "pix payment with known customer",
			userUID: "uid-1",
			cmd: models.CreatePaymentCommand{
				Method:      models.MethodPix,
				Amount:      497.00,
				TaxID:       "529.982.247-25",
				Description: "Mentoria de IA",
				ProductKind: "course",
			},
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetUser", mock.Anything, "uid-1").Return(userWithCustomer, nil).Once()
				g.On("CreatePixPayment", "cus_1", 497.00, mock.Anything, "Mentoria de IA", "user:uid-1").
					Return(&gateway.PaymentResponse{ID: "pay_1", Status: "PENDING", PixQrCode: "qr-data"}, nil).Once()
				r.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
					return p.ExternalID == "pay_1" && p.Status == models.PaymentPending && p.PixQrCode == "qr-data"
				})).Return(7, nil).Once()
			},
			check: func(t *testing.T, p *models.Payment) {
				assert.Equal(t, 7, p.ID)
				assert.Equal(t, models.PaymentPending, p.Status)
			},
		},
		{
			name:    "boleto payment creates gateway customer first",
			userUID: "uid-2",
			cmd: models.CreatePaymentCommand{
				Method:      models.MethodBoleto,
				Amount:      1290.00,
				TaxID:       "529.982.247-25",
				Description: "Automação com n8n",
				ProductKind: "course",
			},
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetUser", mock.Anything, "uid-2").Return(userWithoutCustomer, nil).Once()
				g.On("GetOrCreateCustomer", "João", "joao@example.com", "529.982.247-25").
					Return(&gateway.Customer{ID: "cus_2"}, nil).Once()
				r.On("SetGatewayCustomerID", mock.Anything, "uid-2", "cus_2").Return(nil).Once()
				g.On("CreateBoletoPayment", "cus_2", 1290.00, mock.Anything, "Automação com n8n", "user:uid-2").
					Return(&gateway.PaymentResponse{ID: "pay_2", Status: "PENDING", BankSlipURL: "https://pay/slip"}, nil).Once()
				r.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
					return p.InvoiceURL == "https://pay/slip"
				})).Return(8, nil).Once()
			},
			check: func(t *testing.T, p *models.Payment) {
				assert.Equal(t, "https://pay/slip", p.InvoiceURL)
			},
		},
		{
			name:    "card payment without token",
			userUID: "uid-1",
			cmd: models.CreatePaymentCommand{
				Method:      models.MethodCreditCard,
				Amount:      100,
				TaxID:       "529.982.247-25",
				Description: "Curso",
				ProductKind: "course",
			},
			setupMocks:    func(r *MockRepository, g *MockGateway) {},
			expectedError: ErrCardTokenRequired,
		},
		{
			name:    "gateway failure",
			userUID: "uid-1",
			cmd: models.CreatePaymentCommand{
				Method:      models.MethodPix,
				Amount:      100,
				TaxID:       "529.982.247-25",
				Description: "Curso",
				ProductKind: "course",
			},
			setupMocks: func(r *MockRepository, g *MockGateway) {
				r.On("GetUser", mock.Anything, "uid-1").Return(userWithCustomer, nil).Once()
				g.On("CreatePixPayment", "cus_1", 100.00, mock.Anything, "Curso", "user:uid-1").
					Return(nil, gateway.ErrUnavailable).Once()
			},
			expectedError: gateway.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			gw := new(MockGateway)
			service := New(repo, gw, new(MockPublisher), newNoopLogger())

			tt.setupMocks(repo, gw)

			result, err := service.CreatePayment(context.Background(), tt.userUID, tt.cmd)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				tt.check(t, result)
			}

			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
		})
	}
}

func TestService_ProcessGatewayEvent(t *testing.T) {
	confirmedPayment := &models.Payment{
		ID:          7,
		ExternalID:  "pay_1",
		UserUID:     "uid-1",
		Method:      models.MethodPix,
		Amount:      497.00,
		Description: "Mentoria de IA",
		Status:      models.PaymentConfirmed,
	}
	owner := &models.User{UID: "uid-1", Email: "maria@example.com", Name: "Maria"}

	merchPayment := &models.Payment{
		ID:          9,
		ExternalID:  "pay_9",
		UserUID:     "uid-1",
		Method:      models.MethodPix,
		Amount:      159.00,
		Description: "Camiseta Aprenda+",
		Status:      models.PaymentConfirmed,
		ProductKind: models.ProductMerch,
	}

	tests := []struct {
		name           string
		event          string
		externalID     string
		subscriptionID string
		setupMocks     func(*MockRepository, *MockPublisher)
		expectedError  bool
	}{
		{
			name:       "confirmed event publishes notification once",
			event:      gateway.EventPaymentConfirmed,
			externalID: "pay_1",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("TransitionPaymentStatus", mock.Anything, "pay_1", models.PaymentConfirmed).Return(true, nil).Once()
				r.On("GetPaymentByExternalID", mock.Anything, "pay_1").Return(confirmedPayment, nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").Return(owner, nil).Once()
				p.On("Publish", "payment", mock.MatchedBy(func(msg any) bool {
					n, ok := msg.(models.PaymentNotification)
					return ok && n.Email == "maria@example.com"
				})).Return(nil).Once()
			},
		},
		{
			name:       "confirmed merch payment carries product kind",
			event:      gateway.EventPaymentConfirmed,
			externalID: "pay_9",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("TransitionPaymentStatus", mock.Anything, "pay_9", models.PaymentConfirmed).Return(true, nil).Once()
				r.On("GetPaymentByExternalID", mock.Anything, "pay_9").Return(merchPayment, nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").Return(owner, nil).Once()
				p.On("Publish", "payment", mock.MatchedBy(func(msg any) bool {
					n, ok := msg.(models.PaymentNotification)
					return ok && n.ProductKind == models.ProductMerch
				})).Return(nil).Once()
			},
		},
		{
			name:           "subscription cycle payment activates subscription",
			event:          gateway.EventPaymentConfirmed,
			externalID:     "pay_cycle_1",
			subscriptionID: "sub_9",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("UpdateSubscriptionStatus", mock.Anything, "sub_9", models.SubscriptionActive).Return(true, nil).Once()
				r.On("TransitionPaymentStatus", mock.Anything, "pay_cycle_1", models.PaymentConfirmed).
					Return(false, repository.ErrNotFound).Once()
			},
		},
		{
			name:           "overdue subscription charge marks subscription overdue",
			event:          gateway.EventPaymentOverdue,
			externalID:     "pay_cycle_2",
			subscriptionID: "sub_9",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("UpdateSubscriptionStatus", mock.Anything, "sub_9", models.SubscriptionOverdue).Return(true, nil).Once()
				r.On("TransitionPaymentStatus", mock.Anything, "pay_cycle_2", models.PaymentOverdue).
					Return(false, repository.ErrNotFound).Once()
			},
		},
		{
			name:           "refunded cycle payment leaves subscription untouched",
			event:          gateway.EventPaymentRefunded,
			externalID:     "pay_cycle_3",
			subscriptionID: "sub_9",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("TransitionPaymentStatus", mock.Anything, "pay_cycle_3", models.PaymentRefunded).
					Return(false, repository.ErrNotFound).Once()
			},
		},
		{
			name:           "subscription storage error does not fail the webhook",
			event:          gateway.EventPaymentConfirmed,
			externalID:     "pay_cycle_4",
			subscriptionID: "sub_9",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("UpdateSubscriptionStatus", mock.Anything, "sub_9", models.SubscriptionActive).
					Return(false, errors.New("db error")).Once()
				r.On("TransitionPaymentStatus", mock.Anything, "pay_cycle_4", models.PaymentConfirmed).
					Return(false, repository.ErrNotFound).Once()
			},
		},
		{
			name:       "duplicate delivery does not publish again",
			event:      gateway.EventPaymentConfirmed,
			externalID: "pay_1",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("TransitionPaymentStatus", mock.Anything, "pay_1", models.PaymentConfirmed).Return(false, nil).Once()
			},
		},
		{
			name:       "overdue event transitions without notification",
			event:      gateway.EventPaymentOverdue,
			externalID: "pay_2",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("TransitionPaymentStatus", mock.Anything, "pay_2", models.PaymentOverdue).Return(true, nil).Once()
			},
		},
		{
			name:       "unknown event is acknowledged and skipped",
			event:      "PAYMENT_SOMETHING_NEW",
			externalID: "pay_3",
			setupMocks: func(r *MockRepository, p *MockPublisher) {},
		},
		{
			name:       "event for unknown payment is acknowledged",
			event:      gateway.EventPaymentConfirmed,
			externalID: "pay_missing",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("TransitionPaymentStatus", mock.Anything, "pay_missing", models.PaymentConfirmed).
					Return(false, repository.ErrNotFound).Once()
			},
		},
		{
			name:       "storage error propagates",
			event:      gateway.EventPaymentConfirmed,
			externalID: "pay_1",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("TransitionPaymentStatus", mock.Anything, "pay_1", models.PaymentConfirmed).
					Return(false, errors.New("db error")).Once()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			pub := new(MockPublisher)
			service := New(repo, new(MockGateway), pub, newNoopLogger())

			tt.setupMocks(repo, pub)

			err := service.ProcessGatewayEvent(context.Background(), tt.event, tt.externalID, tt.subscriptionID)

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
