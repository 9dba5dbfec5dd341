// Package flushlimits реализует административный сброс счётчиков
// ограничителя частоты запросов.
//
// Эндпоинт защищён отдельным секретом в заголовке X-Admin-Secret: им
// пользуются скрипты поддержки без JWT.
package flushlimits

import (
	"context"
	"crypto/hmac"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
)

// Limiter описывает операцию сброса счётчиков.
type Limiter interface {
	FlushAll(ctx context.Context) (int, error)
}

// AuditLog пишет журнал административных действий.
type AuditLog interface {
	Record(ctx context.Context, actorUID, action, category, target string, detail any)
}

// Handler обрабатывает запросы сброса лимитов.
type Handler struct {
	log     *slog.Logger
	limiter Limiter
	audit   AuditLog
	secret  string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, limiter Limiter, audit AuditLog, secret string) *Handler {
	return &Handler{
		log:     log,
		limiter: limiter,
		audit:   audit,
		secret:  secret,
	}
}

// ServeHTTP godoc
// @Summary Сброс счётчиков лимитов
// @Description Удаляет все счётчики ограничителя частоты запросов.
// @Tags Admin
// @Produce  json
// @Param X-Admin-Secret header string true "Секрет администратора"
// @Success 200 {object} map[string]any "Счётчики сброшены"
// @Failure 401 {object} response.ErrorResponse "Неверный секрет"
// @Failure 500 {object} response.ErrorResponse "Ошибка сброса"
// @Router /admin/flush-ratelimits [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.flushlimits"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	secret := r.Header.Get("X-Admin-Secret")
	if h.secret == "" || !hmac.Equal([]byte(secret), []byte(h.secret)) {
		log.Error("admin secret mismatch")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid admin secret"))
		return
	}

	removed, err := h.limiter.FlushAll(r.Context())
	if err != nil {
		log.Error("failed to flush rate limits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to flush rate limits"))
		return
	}

	h.audit.Record(r.Context(), "operator", "ratelimit_flush", "ratelimits", "all",
		map[string]any{"removed": removed})

	log.Info("rate limits flushed", slog.Int("removed", removed))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"removed": removed,
	}))
}
