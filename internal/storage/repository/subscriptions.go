package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// CreateSubscription сохраняет новую подписку и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "storage.CreateSubscription"

	var id int
	query := `INSERT INTO subscriptions (external_id, user_uid, plan, cycle, amount, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query,
		sub.ExternalID, sub.UserUID, sub.Plan, sub.Cycle, sub.Amount, sub.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"

	query := `SELECT id, external_id, user_uid, plan, cycle, amount, status, created_at, updated_at
			  FROM subscriptions
			  WHERE id = $1`
	sub := &models.Subscription{}
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.ExternalID, &sub.UserUID, &sub.Plan, &sub.Cycle,
		&sub.Amount, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// UpdateSubscriptionStatus обновляет статус подписки по идентификатору
// шлюза. Возвращает true, если запись изменилась.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, externalID string, status models.SubscriptionStatus) (bool, error) {
	const op = "storage.UpdateSubscriptionStatus"

	query := `UPDATE subscriptions
			  SET status = $2, updated_at = NOW()
			  WHERE external_id = $1 AND status <> $2`
	res, err := s.DB.ExecContext(ctx, query, externalID, status)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}
