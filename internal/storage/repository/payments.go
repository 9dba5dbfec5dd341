package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// CreatePayment сохраняет новую запись платежа и возвращает её ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	const op = "storage.CreatePayment"

	var id int
	query := `INSERT INTO payments (external_id, user_uid, method, amount, description,
			      status, invoice_url, pix_qr_code, product_kind)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query,
		p.ExternalID, p.UserUID, p.Method, p.Amount, p.Description,
		p.Status, p.InvoiceURL, p.PixQrCode, p.ProductKind).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPaymentByExternalID возвращает платёж по идентификатору шлюза.
func (s *Storage) GetPaymentByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByExternalID"

	query := `SELECT id, external_id, user_uid, method, amount, description,
			      status, invoice_url, pix_qr_code, product_kind, created_at, updated_at
			  FROM payments
			  WHERE external_id = $1`
	p := &models.Payment{}
	err := s.DB.QueryRowContext(ctx, query, externalID).Scan(
		&p.ID, &p.ExternalID, &p.UserUID, &p.Method, &p.Amount, &p.Description,
		&p.Status, &p.InvoiceURL, &p.PixQrCode, &p.ProductKind, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// TransitionPaymentStatus переводит платёж в новый статус, если переход
// допустим машиной состояний. Возвращает true, если запись изменилась:
// повторная доставка того же события вебхука даёт false и не порождает
// побочных эффектов у вызывающего кода.
func (s *Storage) TransitionPaymentStatus(ctx context.Context, externalID string, next models.PaymentStatus) (bool, error) {
	const op = "storage.TransitionPaymentStatus"

	current, err := s.GetPaymentByExternalID(ctx, externalID)
	if err != nil {
		return false, err
	}
	if !current.Status.CanTransition(next) {
		return false, nil
	}

	query := `UPDATE payments
			  SET status = $2, updated_at = NOW()
			  WHERE external_id = $1 AND status = $3`
	res, err := s.DB.ExecContext(ctx, query, externalID, next, current.Status)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// ListPaymentsByUser возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"

	query := `SELECT id, external_id, user_uid, method, amount, description,
			      status, invoice_url, pix_qr_code, product_kind, created_at, updated_at
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err = rows.Scan(&p.ID, &p.ExternalID, &p.UserUID, &p.Method, &p.Amount,
			&p.Description, &p.Status, &p.InvoiceURL, &p.PixQrCode, &p.ProductKind,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
