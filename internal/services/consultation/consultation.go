// Package consultation содержит логику заявок на консультацию.
package consultation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// Repository описывает контракт хранилища для заявок.
type Repository interface {
	CreateConsultation(ctx context.Context, req models.ConsultationRequest) (int, error)
	GetConsultation(ctx context.Context, id int) (*models.ConsultationRequest, error)
	UpdateConsultationStatus(ctx context.Context, id int, status models.ConsultationStatus, scheduledAt *time.Time) (bool, error)
}

// Publisher публикует сообщения для воркера уведомлений.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// ConsultationService принимает заявки с формы и ведёт их жизненный цикл.
type ConsultationService struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// New создает новый экземпляр ConsultationService.
func New(repo Repository, publisher Publisher, log *slog.Logger) *ConsultationService {
	return &ConsultationService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Create сохраняет заявку со снимком корзины и уведомляет команду.
// Сбой уведомления заявку не теряет.
func (s *ConsultationService) Create(ctx context.Context, cmd models.CreateConsultationCommand) (int, error) {
	const op = "services.consultation.Create"

	cart := cmd.Cart
	if len(cart) == 0 {
		cart = []byte(`{}`)
	}
	id, err := s.repo.CreateConsultation(ctx, models.ConsultationRequest{
		Email:        cmd.Email,
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		Message:      cmd.Message,
		CartSnapshot: cart,
		Status:       models.ConsultationPending,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if s.publisher != nil {
		msg := models.ConsultationNotification{
			Email:     cmd.Email,
			Name:      cmd.Name,
			Message:   cmd.Message,
			RequestID: id,
		}
		if err := s.publisher.Publish("consultation", msg); err != nil {
			s.log.Error("failed to publish consultation notification", sl.Err(err))
		}
	}
	return id, nil
}

// Get возвращает заявку по ID.
func (s *ConsultationService) Get(ctx context.Context, id int) (*models.ConsultationRequest, error) {
	return s.repo.GetConsultation(ctx, id)
}

// UpdateStatus переводит заявку в новый статус. Перевод в scheduled
// требует времени встречи.
func (s *ConsultationService) UpdateStatus(ctx context.Context, id int, status models.ConsultationStatus, scheduledAt *time.Time) error {
	const op = "services.consultation.UpdateStatus"

	if status == models.ConsultationScheduled && scheduledAt == nil {
		return fmt.Errorf("%s: scheduled_at is required for scheduling", op)
	}
	changed, err := s.repo.UpdateConsultationStatus(ctx, id, status, scheduledAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		s.log.Warn("consultation status not changed", slog.Int("id", id), slog.String("status", string(status)))
	}
	return nil
}
