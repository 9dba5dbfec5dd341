// Package fulfillment содержит логику сверки заказов печати по требованию:
// события вебхуков Printify и Prodigi, одноразовые письма о доставке и
// выдачу трекинга с опросом партнёра.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/printify"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

// ErrForbidden возвращается при запросе трекинга чужого заказа.
var ErrForbidden = errors.New("order does not belong to user")

// Repository описывает контракт хранилища для заказов фулфилмента.
type Repository interface {
	CreateFulfillmentOrder(ctx context.Context, o models.FulfillmentOrder) (int, error)
	GetFulfillmentOrder(ctx context.Context, id int) (*models.FulfillmentOrder, error)
	GetFulfillmentOrderByExternalID(ctx context.Context, provider, externalID string) (*models.FulfillmentOrder, error)
	UpdateFulfillmentOrderTracking(ctx context.Context, provider, externalID string,
		status models.FulfillmentStatus, trackingNumber, trackingURL, carrier string) (bool, error)
	MarkFulfillmentOrderNotified(ctx context.Context, orderID int) (bool, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Publisher публикует сообщения для воркера уведомлений.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Cache читающий кеш для ответов трекинга.
type Cache interface {
	GetOrSet(key string, ttl time.Duration, dest any, producer func() (any, error)) error
}

// Poller опрашивает Printify для обновления трекинга.
type Poller interface {
	GetOrder(orderID string) (*printify.Order, error)
}

// ProviderEvent нормализованное событие вебхука партнёра фулфилмента.
// UserUID и PaymentID заполняются из метаданных события и нужны только
// для первого события по ещё не известному заказу.
type ProviderEvent struct {
	Provider       string
	OrderID        string
	Status         models.FulfillmentStatus
	TrackingNumber string
	TrackingURL    string
	Carrier        string
	UserUID        string
	PaymentID      int
}

// FulfillmentService сверяет заказы печати по требованию.
type FulfillmentService struct {
	repo      Repository
	publisher Publisher
	cache     Cache
	poller    Poller
	log       *slog.Logger
}

// New создает новый экземпляр FulfillmentService.
func New(repo Repository, publisher Publisher, cache Cache, poller Poller, log *slog.Logger) *FulfillmentService {
	return &FulfillmentService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		poller:    poller,
		log:       log,
	}
}

// HandleProviderEvent применяет событие вебхука партнёра к локальному
// заказу. Первое событие по неизвестному заказу создаёт запись, если
// метаданные позволяют привязать её к пользователю. Обновление
// идемпотентно, письмо о доставке уходит строго один раз.
func (s *FulfillmentService) HandleProviderEvent(ctx context.Context, evt ProviderEvent) error {
	const op = "services.fulfillment.HandleProviderEvent"

	order, err := s.repo.GetFulfillmentOrderByExternalID(ctx, evt.Provider, evt.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		if evt.UserUID == "" {
			s.log.Warn("event for unknown order without user metadata",
				slog.String("provider", evt.Provider), slog.String("order_id", evt.OrderID))
			return nil
		}
		id, createErr := s.repo.CreateFulfillmentOrder(ctx, models.FulfillmentOrder{
			ExternalID: evt.OrderID,
			Provider:   evt.Provider,
			UserUID:    evt.UserUID,
			PaymentID:  evt.PaymentID,
			Status:     models.FulfillmentCreated,
		})
		if createErr != nil {
			return fmt.Errorf("%s: %w", op, createErr)
		}
		order = &models.FulfillmentOrder{ID: id, ExternalID: evt.OrderID, Provider: evt.Provider, UserUID: evt.UserUID}
	} else if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.UpdateFulfillmentOrderTracking(ctx, evt.Provider, evt.OrderID,
		evt.Status, evt.TrackingNumber, evt.TrackingURL, evt.Carrier); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if evt.Status == models.FulfillmentDelivered {
		first, err := s.repo.MarkFulfillmentOrderNotified(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if first {
			s.notifyDelivered(ctx, order.UserUID, evt)
		}
	}
	return nil
}

func (s *FulfillmentService) notifyDelivered(ctx context.Context, userUID string, evt ProviderEvent) {
	if s.publisher == nil {
		return
	}
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Error("failed to load order owner", sl.Err(err))
		return
	}
	msg := models.DeliveryNotification{
		Email:          user.Email,
		Name:           user.Name,
		TrackingNumber: evt.TrackingNumber,
		TrackingURL:    evt.TrackingURL,
		Carrier:        evt.Carrier,
	}
	if err := s.publisher.Publish("delivery", msg); err != nil {
		s.log.Error("failed to publish delivery notification", sl.Err(err))
	}
}

// GetTracking возвращает состояние заказа для владельца. Ответ кешируется,
// для заказов Printify без трекинга дополнительно опрашивается партнёр.
func (s *FulfillmentService) GetTracking(ctx context.Context, userUID string, orderID int) (*models.FulfillmentOrder, error) {
	const op = "services.fulfillment.GetTracking"

	order, err := s.repo.GetFulfillmentOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserUID != userUID {
		return nil, ErrForbidden
	}

	if s.cache == nil {
		return s.refreshTracking(ctx, order)
	}

	var cached models.FulfillmentOrder
	key := fmt.Sprintf("tracking:order:%d", orderID)
	err = s.cache.GetOrSet(key, 10*time.Minute, &cached, func() (any, error) {
		fresh, err := s.refreshTracking(ctx, order)
		if err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cached, nil
}

// refreshTracking дополняет заказ Printify свежим трекингом из опроса.
// Недоступность партнёра не фатальна: отдаём то, что есть в базе.
func (s *FulfillmentService) refreshTracking(ctx context.Context, order *models.FulfillmentOrder) (*models.FulfillmentOrder, error) {
	if order.Provider != models.ProviderPrintify || s.poller == nil || isTerminal(order.Status) {
		return order, nil
	}

	ext, err := s.poller.GetOrder(order.ExternalID)
	if err != nil {
		s.log.Warn("printify poll failed", sl.Err(err))
		return order, nil
	}
	if ext == nil {
		return order, nil
	}

	status := MapPrintifyStatus(ext.Status)
	trackingNumber, trackingURL, carrier := order.TrackingNumber, order.TrackingURL, order.Carrier
	if len(ext.Shipments) > 0 {
		sh := ext.Shipments[0]
		trackingNumber, trackingURL, carrier = sh.Number, sh.URL, sh.Carrier
	}
	if _, err := s.repo.UpdateFulfillmentOrderTracking(ctx, order.Provider, order.ExternalID,
		status, trackingNumber, trackingURL, carrier); err != nil {
		s.log.Warn("failed to persist polled tracking", sl.Err(err))
	}

	order.Status = status
	order.TrackingNumber = trackingNumber
	order.TrackingURL = trackingURL
	order.Carrier = carrier
	return order, nil
}

func isTerminal(status models.FulfillmentStatus) bool {
	return status == models.FulfillmentDelivered || status == models.FulfillmentCancelled
}

// MapPrintifyStatus переводит статус заказа Printify во внутренний.
func MapPrintifyStatus(external string) models.FulfillmentStatus {
	switch external {
	case "in-production", "sending-to-production":
		return models.FulfillmentInProduction
	case "fulfilled":
		return models.FulfillmentShipped
	case "delivered":
		return models.FulfillmentDelivered
	case "canceled":
		return models.FulfillmentCancelled
	default:
		return models.FulfillmentCreated
	}
}

// MapProdigiStatus переводит статус заказа Prodigi во внутренний.
func MapProdigiStatus(external string) models.FulfillmentStatus {
	switch external {
	case "InProgress":
		return models.FulfillmentInProduction
	case "Complete", "Shipped":
		return models.FulfillmentShipped
	case "Delivered":
		return models.FulfillmentDelivered
	case "Cancelled":
		return models.FulfillmentCancelled
	default:
		return models.FulfillmentCreated
	}
}
