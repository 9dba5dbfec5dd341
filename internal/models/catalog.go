package models

import (
	"encoding/json"
	"time"
)

// ServicePrice позиция каталога услуг. Читается часто, обновляется редко,
// отдаётся через кеш с TTL.
type ServicePrice struct {
	ID          int
	Slug        string
	Title       string
	Description string
	Price       float64
	Currency    string
	Active      bool
	UpdatedAt   time.Time
}

// Proposal сгенерированная заявка на расчёт услуг.
type Proposal struct {
	ID        int
	Email     string
	Name      string
	Items     json.RawMessage // Выбранные услуги с ценами на момент расчёта
	Total     float64
	CreatedAt time.Time
}

// CreateProposalCommand данные из JSON-запроса на расчёт услуг.
type CreateProposalCommand struct {
	Email string          `json:"email" validate:"required,email"`
	Name  string          `json:"name" validate:"required"`
	Items json.RawMessage `json:"items" validate:"required"`
	Total float64         `json:"total" validate:"required,gt=0"`
}

// Certificate выданный сертификат о прохождении курса.
// Проверяется публично по коду.
type Certificate struct {
	Code        string
	StudentName string
	CourseName  string
	IssuedAt    time.Time
	Revoked     bool
}
