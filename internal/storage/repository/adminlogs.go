package repository

import (
	"context"
	"fmt"

	"github.com/aprendaplus/platform-backend/internal/models"
)

// AppendAdminLog добавляет неизменяемую запись аудита.
func (s *Storage) AppendAdminLog(ctx context.Context, entry models.AdminLog) error {
	const op = "storage.AppendAdminLog"

	query := `INSERT INTO admin_logs (id, actor_uid, action, category, target, detail)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query,
		entry.ID, entry.ActorUID, entry.Action, entry.Category, entry.Target, []byte(entry.Detail))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAdminLogs возвращает записи аудита, новые первыми.
func (s *Storage) ListAdminLogs(ctx context.Context, limit, offset int) ([]*models.AdminLog, error) {
	const op = "storage.ListAdminLogs"

	query := `SELECT id, actor_uid, action, category, target, detail, created_at
			  FROM admin_logs
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.AdminLog
	for rows.Next() {
		var entry models.AdminLog
		var detail []byte
		if err = rows.Scan(&entry.ID, &entry.ActorUID, &entry.Action, &entry.Category,
			&entry.Target, &detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entry.Detail = detail
		result = append(result, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
