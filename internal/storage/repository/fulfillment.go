package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// CreateFulfillmentOrder сохраняет новый заказ фулфилмента.
func (s *Storage) CreateFulfillmentOrder(ctx context.Context, o models.FulfillmentOrder) (int, error) {
	const op = "storage.CreateFulfillmentOrder"

	var id int
	query := `INSERT INTO fulfillment_orders (external_id, provider, user_uid, payment_id, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query,
		o.ExternalID, o.Provider, o.UserUID, o.PaymentID, o.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetFulfillmentOrder возвращает заказ по внутреннему ID.
func (s *Storage) GetFulfillmentOrder(ctx context.Context, id int) (*models.FulfillmentOrder, error) {
	const op = "storage.GetFulfillmentOrder"
	return s.scanOrder(ctx, op, `SELECT id, external_id, provider, user_uid, payment_id, status,
			      tracking_number, tracking_url, carrier, notified_at, created_at, updated_at
			  FROM fulfillment_orders WHERE id = $1`, id)
}

// GetFulfillmentOrderByExternalID возвращает заказ по идентификатору партнёра.
func (s *Storage) GetFulfillmentOrderByExternalID(ctx context.Context, provider, externalID string) (*models.FulfillmentOrder, error) {
	const op = "storage.GetFulfillmentOrderByExternalID"
	return s.scanOrder(ctx, op, `SELECT id, external_id, provider, user_uid, payment_id, status,
			      tracking_number, tracking_url, carrier, notified_at, created_at, updated_at
			  FROM fulfillment_orders WHERE provider = $1 AND external_id = $2`, provider, externalID)
}

func (s *Storage) scanOrder(ctx context.Context, op, query string, args ...any) (*models.FulfillmentOrder, error) {
	o := &models.FulfillmentOrder{}
	var trackingNumber, trackingURL, carrier sql.NullString
	var notifiedAt sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.ExternalID, &o.Provider, &o.UserUID, &o.PaymentID, &o.Status,
		&trackingNumber, &trackingURL, &carrier, &notifiedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	o.TrackingNumber = trackingNumber.String
	o.TrackingURL = trackingURL.String
	o.Carrier = carrier.String
	if notifiedAt.Valid {
		o.NotifiedAt = &notifiedAt.Time
	}
	return o, nil
}

// UpdateFulfillmentOrderTracking обновляет статус и трекинг заказа.
// Возвращает true, если запись изменилась: повторная доставка того же
// события вебхука даёт false.
func (s *Storage) UpdateFulfillmentOrderTracking(ctx context.Context, provider, externalID string,
	status models.FulfillmentStatus, trackingNumber, trackingURL, carrier string) (bool, error) {
	const op = "storage.UpdateFulfillmentOrderTracking"

	query := `UPDATE fulfillment_orders
			  SET status = $3,
			      tracking_number = COALESCE(NULLIF($4, ''), tracking_number),
			      tracking_url = COALESCE(NULLIF($5, ''), tracking_url),
			      carrier = COALESCE(NULLIF($6, ''), carrier),
			      updated_at = NOW()
			  WHERE provider = $1 AND external_id = $2 AND status <> $3`
	res, err := s.DB.ExecContext(ctx, query, provider, externalID, status, trackingNumber, trackingURL, carrier)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// MarkFulfillmentOrderNotified выставляет notified_at, если он ещё пуст.
// Возвращает true только первому вызову: письмо о доставке уходит один раз.
func (s *Storage) MarkFulfillmentOrderNotified(ctx context.Context, orderID int) (bool, error) {
	const op = "storage.MarkFulfillmentOrderNotified"

	query := `UPDATE fulfillment_orders
			  SET notified_at = NOW()
			  WHERE id = $1 AND notified_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, orderID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}
