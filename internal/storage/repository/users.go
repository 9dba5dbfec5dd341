package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// RegisterUser сохраняет нового пользователя и возвращает его UID.
// Email приводится к нижнему регистру; занятый email - ErrEmailTaken.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"

	var newUID string
	query := `INSERT INTO users (email, name, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	err := s.DB.QueryRowContext(ctx, query,
		strings.ToLower(user.Email), user.Name, user.PasswordHash, user.Role).Scan(&newUID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// PromoteLead превращает запись лида в полноценного студента:
// выставляет пароль, имя и роль. Возвращает UID обновлённой записи
// или ErrNotFound, если лида с таким email нет.
func (s *Storage) PromoteLead(ctx context.Context, email, name, passwordHash string) (string, error) {
	const op = "storage.PromoteLead"

	var uid string
	query := `UPDATE users
			  SET name = $2, password_hash = $3, role = $4
			  WHERE email = $1 AND role = $5
			  RETURNING uid;`
	err := s.DB.QueryRowContext(ctx, query,
		strings.ToLower(email), name, passwordHash, models.RoleStudent, models.RoleLead).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetUserByEmail возвращает пользователя по email (регистронезависимо).
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT uid, email, name, password_hash, role, gateway_customer_id, last_login_at, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, strings.ToLower(email))

	var gatewayCustomerID sql.NullString
	var lastLoginAt sql.NullTime
	err := row.Scan(&u.UID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&gatewayCustomerID, &lastLoginAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u.GatewayCustomerID = gatewayCustomerID.String
	if lastLoginAt.Valid {
		u.LastLoginAt = &lastLoginAt.Time
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT uid, email, name, password_hash, role, gateway_customer_id, last_login_at, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var gatewayCustomerID sql.NullString
	var lastLoginAt sql.NullTime
	err := row.Scan(&u.UID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&gatewayCustomerID, &lastLoginAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u.GatewayCustomerID = gatewayCustomerID.String
	if lastLoginAt.Valid {
		u.LastLoginAt = &lastLoginAt.Time
	}
	return u, nil
}

// UpdateLastLogin фиксирует время последнего входа.
func (s *Storage) UpdateLastLogin(ctx context.Context, userUID string) error {
	const op = "storage.UpdateLastLogin"

	query := `UPDATE users SET last_login_at = NOW() WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetGatewayCustomerID сохраняет идентификатор клиента шлюза, чтобы не
// создавать его повторно при следующих платежах.
func (s *Storage) SetGatewayCustomerID(ctx context.Context, userUID, customerID string) error {
	const op = "storage.SetGatewayCustomerID"

	query := `UPDATE users SET gateway_customer_id = $2 WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID, customerID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
