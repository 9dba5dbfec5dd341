package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// ListServicePrices возвращает активные позиции каталога услуг.
func (s *Storage) ListServicePrices(ctx context.Context) ([]*models.ServicePrice, error) {
	const op = "storage.ListServicePrices"

	query := `SELECT id, slug, title, description, price, currency, active, updated_at
			  FROM service_prices
			  WHERE active = TRUE
			  ORDER BY title`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ServicePrice
	for rows.Next() {
		var p models.ServicePrice
		if err = rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Description,
			&p.Price, &p.Currency, &p.Active, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateProposal сохраняет заявку на расчёт услуг.
func (s *Storage) CreateProposal(ctx context.Context, p models.Proposal) (int, error) {
	const op = "storage.CreateProposal"

	var id int
	query := `INSERT INTO proposals (email, name, items, total)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query, p.Email, p.Name, []byte(p.Items), p.Total).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetCertificateByCode возвращает сертификат по публичному коду.
func (s *Storage) GetCertificateByCode(ctx context.Context, code string) (*models.Certificate, error) {
	const op = "storage.GetCertificateByCode"

	query := `SELECT code, student_name, course_name, issued_at, revoked
			  FROM certificates
			  WHERE code = $1`
	cert := &models.Certificate{}
	err := s.DB.QueryRowContext(ctx, query, code).Scan(
		&cert.Code, &cert.StudentName, &cert.CourseName, &cert.IssuedAt, &cert.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cert, nil
}
