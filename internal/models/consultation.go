package models

import (
	"encoding/json"
	"time"
)

// ConsultationStatus статус заявки на консультацию.
type ConsultationStatus string

// Жизненный цикл заявки: pending -> scheduled -> completed | cancelled.
const (
	ConsultationPending   ConsultationStatus = "pending"
	ConsultationScheduled ConsultationStatus = "scheduled"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationCancelled ConsultationStatus = "cancelled"
)

// ConsultationRequest заявка с формы записи на консультацию.
// CartSnapshot - содержимое корзины на момент отправки, как прислал клиент.
type ConsultationRequest struct {
	ID           int
	Email        string
	Name         string
	Phone        string
	Message      string
	CartSnapshot json.RawMessage // Снимок корзины на момент отправки
	Status       ConsultationStatus
	ScheduledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateConsultationCommand данные из JSON-запроса формы консультации.
type CreateConsultationCommand struct {
	Email   string          `json:"email" validate:"required,email"`
	Name    string          `json:"name" validate:"required"`
	Phone   string          `json:"phone,omitempty"`
	Message string          `json:"message,omitempty"`
	Cart    json.RawMessage `json:"cart,omitempty"`
}
