// Package payment содержит логику создания платежей через шлюз Cobrafácil
// и сверку статусов по событиям его вебхука.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprendaplus/platform-backend/internal/gateway"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// ErrCardTokenRequired возвращается при оплате картой без токена карты.
var ErrCardTokenRequired = errors.New("card token is required for credit card payments")

// Repository описывает контракт хранилища для платежей.
type Repository interface {
	CreatePayment(ctx context.Context, p models.Payment) (int, error)
	GetPaymentByExternalID(ctx context.Context, externalID string) (*models.Payment, error)
	TransitionPaymentStatus(ctx context.Context, externalID string, next models.PaymentStatus) (bool, error)
	ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error)
	UpdateSubscriptionStatus(ctx context.Context, externalID string, status models.SubscriptionStatus) (bool, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetGatewayCustomerID(ctx context.Context, userUID, customerID string) error
}

// GatewayClient описывает используемые операции клиента шлюза.
type GatewayClient interface {
	GetOrCreateCustomer(name, email, rawTaxID string) (*gateway.Customer, error)
	CreatePixPayment(customerID string, value float64, dueDate, description, externalRef string) (*gateway.PaymentResponse, error)
	CreateBoletoPayment(customerID string, value float64, dueDate, description, externalRef string) (*gateway.PaymentResponse, error)
	CreateCardPayment(customerID string, value float64, dueDate, description, externalRef, cardToken string) (*gateway.PaymentResponse, error)
}

// Publisher публикует сообщения для воркера уведомлений.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// PaymentService создаёт платежи и применяет события вебхука шлюза.
type PaymentService struct {
	repo      Repository
	gw        GatewayClient
	publisher Publisher
	log       *slog.Logger
}

// New создает новый экземпляр PaymentService.
func New(repo Repository, gw GatewayClient, publisher Publisher, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:      repo,
		gw:        gw,
		publisher: publisher,
		log:       log,
	}
}

// CreatePayment создаёт платёж в шлюзе и сохраняет локальную запись.
// Клиент шлюза находится или создаётся по CPF/CNPJ, идентификатор
// сохраняется за пользователем для следующих платежей.
func (s *PaymentService) CreatePayment(ctx context.Context, userUID string, cmd models.CreatePaymentCommand) (*models.Payment, error) {
	const op = "services.payment.CreatePayment"

	if cmd.Method == models.MethodCreditCard && cmd.CardToken == "" {
		return nil, ErrCardTokenRequired
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customerID := user.GatewayCustomerID
	if customerID == "" {
		customer, err := s.gw.GetOrCreateCustomer(user.Name, user.Email, cmd.TaxID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		customerID = customer.ID
		if err := s.repo.SetGatewayCustomerID(ctx, userUID, customerID); err != nil {
			// платёж важнее кэшированного идентификатора
			s.log.Warn("failed to store gateway customer id", sl.Err(err))
		}
	}

	dueDate := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	externalRef := fmt.Sprintf("user:%s", userUID)

	var resp *gateway.PaymentResponse
	switch cmd.Method {
	case models.MethodPix:
		resp, err = s.gw.CreatePixPayment(customerID, cmd.Amount, dueDate, cmd.Description, externalRef)
	case models.MethodBoleto:
		resp, err = s.gw.CreateBoletoPayment(customerID, cmd.Amount, dueDate, cmd.Description, externalRef)
	case models.MethodCreditCard:
		resp, err = s.gw.CreateCardPayment(customerID, cmd.Amount, dueDate, cmd.Description, externalRef, cmd.CardToken)
	default:
		return nil, fmt.Errorf("%s: unsupported payment method %q", op, cmd.Method)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	invoiceURL := resp.InvoiceURL
	if invoiceURL == "" {
		invoiceURL = resp.BankSlipURL
	}
	p := models.Payment{
		ExternalID:  resp.ID,
		UserUID:     userUID,
		Method:      cmd.Method,
		Amount:      cmd.Amount,
		Description: cmd.Description,
		Status:      gateway.MapPaymentStatus(resp.Status),
		InvoiceURL:  invoiceURL,
		PixQrCode:   resp.PixQrCode,
		ProductKind: cmd.ProductKind,
	}
	p.ID, err = s.repo.CreatePayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ListPayments возвращает платежи пользователя, новые первыми.
func (s *PaymentService) ListPayments(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	return s.repo.ListPaymentsByUser(ctx, userUID, limit, offset)
}
