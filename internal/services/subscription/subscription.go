// Package subscription содержит логику оформления и отмены рекуррентных
// подписок через шлюз Cobrafácil.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprendaplus/platform-backend/internal/gateway"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// Repository описывает контракт хранилища для подписок.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, externalID string, status models.SubscriptionStatus) (bool, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetGatewayCustomerID(ctx context.Context, userUID, customerID string) error
}

// GatewayClient описывает используемые операции клиента шлюза.
type GatewayClient interface {
	GetOrCreateCustomer(name, email, rawTaxID string) (*gateway.Customer, error)
	CreateSubscription(params gateway.CreateSubscriptionRequest) (*gateway.SubscriptionResponse, error)
	CancelSubscription(id string) error
}

// SubscriptionService оформляет и отменяет подписки.
type SubscriptionService struct {
	repo Repository
	gw   GatewayClient
	log  *slog.Logger
}

// New создает новый экземпляр SubscriptionService.
func New(repo Repository, gw GatewayClient, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		gw:   gw,
		log:  log,
	}
}

// CreateSubscription оформляет рекуррентное списание по карте.
// Цикл проверяется до обращения к шлюзу, неизвестный цикл — ошибка.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, userUID string, cmd models.CreateSubscriptionCommand) (*models.Subscription, error) {
	const op = "services.subscription.CreateSubscription"

	cycle := models.BillingCycle(cmd.Cycle)
	extCycle, err := gateway.ExternalCycle(cycle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
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
			s.log.Warn("failed to store gateway customer id", sl.Err(err))
		}
	}

	resp, err := s.gw.CreateSubscription(gateway.CreateSubscriptionRequest{
		Customer:        customerID,
		BillingType:     "CREDIT_CARD",
		Value:           cmd.Amount,
		Cycle:           extCycle,
		NextDueDate:     time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		Description:     cmd.Plan,
		CreditCardToken: cmd.CardToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub := models.Subscription{
		ExternalID: resp.ID,
		UserUID:    userUID,
		Plan:       cmd.Plan,
		Cycle:      cycle,
		Amount:     cmd.Amount,
		Status:     gateway.MapSubscriptionStatus(resp.Status),
	}
	sub.ID, err = s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// CancelSubscription отменяет подписку в шлюзе и помечает локальную запись.
// Отменять чужую подписку нельзя.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, userUID string, id int) error {
	const op = "services.subscription.CancelSubscription"

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.UserUID != userUID {
		return fmt.Errorf("%s: subscription %d does not belong to user", op, id)
	}
	if sub.Status == models.SubscriptionCancelled {
		return nil
	}

	if err := s.gw.CancelSubscription(sub.ExternalID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.UpdateSubscriptionStatus(ctx, sub.ExternalID, models.SubscriptionCancelled); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
