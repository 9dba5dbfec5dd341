package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aprendaplus/platform-backend/internal/gateway"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

// ProcessGatewayEvent применяет событие вебхука шлюза к локальным записям.
// Платёж по подписке несёт идентификатор подписки: её статус сверяется до
// платежа, потому что регулярные списания создаёт сам шлюз и локальной
// записи платежа у них нет. Неизвестные события и неизвестные платежи
// логируются и не считаются ошибкой: шлюзу всегда подтверждается приём.
// Переход статуса идемпотентен, письмо об оплате публикуется только при
// первом переходе в confirmed.
func (s *PaymentService) ProcessGatewayEvent(ctx context.Context, event, externalID, subscriptionID string) error {
	const op = "services.payment.ProcessGatewayEvent"

	next, ok := gateway.MapPaymentEvent(event)
	if !ok {
		if next == models.PaymentUnknown {
			s.log.Warn("unknown gateway event", slog.String("event", event), slog.String("payment_id", externalID))
		}
		return nil
	}

	if subscriptionID != "" {
		s.reconcileSubscription(ctx, subscriptionID, next)
	}

	changed, err := s.repo.TransitionPaymentStatus(ctx, externalID, next)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if subscriptionID == "" {
				s.log.Warn("gateway event for unknown payment", slog.String("payment_id", externalID))
			}
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		return nil
	}

	if next == models.PaymentConfirmed {
		s.notifyPaymentConfirmed(ctx, externalID)
	}
	return nil
}

// reconcileSubscription обновляет подписку по целевому статусу платежа.
// Ошибка хранилища не валит вебхук: приём уже подтверждён по токену,
// повторная доставка того же события допишет статус.
func (s *PaymentService) reconcileSubscription(ctx context.Context, externalID string, next models.PaymentStatus) {
	status, ok := subscriptionStatusFor(next)
	if !ok {
		return
	}
	if _, err := s.repo.UpdateSubscriptionStatus(ctx, externalID, status); err != nil {
		s.log.Error("failed to reconcile subscription from gateway event",
			slog.String("subscription_id", externalID), sl.Err(err))
	}
}

// subscriptionStatusFor переводит статус платежа цикла в статус подписки.
// Возврат одного списания подписку не меняет.
func subscriptionStatusFor(next models.PaymentStatus) (models.SubscriptionStatus, bool) {
	switch next {
	case models.PaymentConfirmed:
		return models.SubscriptionActive, true
	case models.PaymentOverdue:
		return models.SubscriptionOverdue, true
	case models.PaymentFailed:
		return models.SubscriptionCancelled, true
	default:
		return "", false
	}
}

func (s *PaymentService) notifyPaymentConfirmed(ctx context.Context, externalID string) {
	if s.publisher == nil {
		return
	}
	p, err := s.repo.GetPaymentByExternalID(ctx, externalID)
	if err != nil {
		s.log.Error("failed to load confirmed payment", sl.Err(err))
		return
	}
	user, err := s.repo.GetUser(ctx, p.UserUID)
	if err != nil {
		s.log.Error("failed to load payment owner", sl.Err(err))
		return
	}
	msg := models.PaymentNotification{
		Email:       user.Email,
		Name:        user.Name,
		Description: p.Description,
		Amount:      p.Amount,
		Method:      p.Method,
		ProductKind: p.ProductKind,
	}
	if err := s.publisher.Publish("payment", msg); err != nil {
		s.log.Error("failed to publish payment notification", sl.Err(err))
	}
}
