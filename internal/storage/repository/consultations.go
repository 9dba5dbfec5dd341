package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// CreateConsultation сохраняет заявку на консультацию со снимком корзины.
func (s *Storage) CreateConsultation(ctx context.Context, req models.ConsultationRequest) (int, error) {
	const op = "storage.CreateConsultation"

	var id int
	query := `INSERT INTO consultation_requests (email, name, phone, message, cart_snapshot, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query,
		req.Email, req.Name, req.Phone, req.Message, []byte(req.CartSnapshot), req.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetConsultation возвращает заявку по ID.
func (s *Storage) GetConsultation(ctx context.Context, id int) (*models.ConsultationRequest, error) {
	const op = "storage.GetConsultation"

	query := `SELECT id, email, name, phone, message, cart_snapshot, status, scheduled_at, created_at, updated_at
			  FROM consultation_requests
			  WHERE id = $1`
	req := &models.ConsultationRequest{}
	var phone, message sql.NullString
	var cart []byte
	var scheduledAt sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.Email, &req.Name, &phone, &message, &cart,
		&req.Status, &scheduledAt, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Phone = phone.String
	req.Message = message.String
	req.CartSnapshot = cart
	if scheduledAt.Valid {
		req.ScheduledAt = &scheduledAt.Time
	}
	return req, nil
}

// UpdateConsultationStatus переводит заявку в новый статус,
// при планировании фиксирует время встречи.
func (s *Storage) UpdateConsultationStatus(ctx context.Context, id int,
	status models.ConsultationStatus, scheduledAt *time.Time) (bool, error) {
	const op = "storage.UpdateConsultationStatus"

	query := `UPDATE consultation_requests
			  SET status = $2, scheduled_at = COALESCE($3, scheduled_at), updated_at = NOW()
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id, status, scheduledAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}
