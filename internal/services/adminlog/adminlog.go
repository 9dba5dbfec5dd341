// Package adminlog пишет журнал аудита привилегированных действий.
package adminlog

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// Repository описывает контракт хранилища журнала аудита.
type Repository interface {
	AppendAdminLog(ctx context.Context, entry models.AdminLog) error
	ListAdminLogs(ctx context.Context, limit, offset int) ([]*models.AdminLog, error)
}

// AdminLogService добавляет записи аудита. Сбой записи логируется,
// но никогда не прерывает само административное действие.
type AdminLogService struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр AdminLogService.
func New(repo Repository, log *slog.Logger) *AdminLogService {
	return &AdminLogService{
		repo: repo,
		log:  log,
	}
}

// Record добавляет запись аудита. Detail сериализуется в JSON;
// несериализуемый detail заменяется на пустой объект.
func (s *AdminLogService) Record(ctx context.Context, actorUID, action, category, target string, detail any) {
	payload := json.RawMessage(`{}`)
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			s.log.Warn("failed to marshal admin log detail", sl.Err(err))
		} else {
			payload = b
		}
	}

	entry := models.AdminLog{
		ID:       uuid.NewString(),
		ActorUID: actorUID,
		Action:   action,
		Category: category,
		Target:   target,
		Detail:   payload,
	}
	if err := s.repo.AppendAdminLog(ctx, entry); err != nil {
		s.log.Error("failed to append admin log",
			slog.String("action", action), slog.String("target", target), sl.Err(err))
	}
}

// List возвращает записи аудита, новые первыми.
func (s *AdminLogService) List(ctx context.Context, limit, offset int) ([]*models.AdminLog, error) {
	return s.repo.ListAdminLogs(ctx, limit, offset)
}
