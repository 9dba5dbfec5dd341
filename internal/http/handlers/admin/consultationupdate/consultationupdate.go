// Package consultationupdate реализует административное изменение статуса
// заявки на консультацию.
package consultationupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/aprendaplus/platform-backend/internal/http/middlewarectx"
	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

// Request — структура запроса на изменение статуса заявки.
type Request struct {
	Status      string     `json:"status" validate:"required,oneof=pending scheduled completed cancelled"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// Service описывает интерфейс бизнес-логики заявок.
type Service interface {
	UpdateStatus(ctx context.Context, id int, status models.ConsultationStatus, scheduledAt *time.Time) error
}

// AuditLog пишет журнал административных действий.
type AuditLog interface {
	Record(ctx context.Context, actorUID, action, category, target string, detail any)
}

// Handler обрабатывает административные запросы по заявкам.
type Handler struct {
	log      *slog.Logger
	service  Service
	audit    AuditLog
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, audit AuditLog) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		audit:    audit,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение статуса заявки
// @Description Переводит заявку на консультацию в новый статус. Только для админов.
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path int true "ID заявки"
// @Param request body Request true "Новый статус"
// @Success 200 {object} response.Response "Статус обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/consultations/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.consultationupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		log.Error("invalid consultation id", slog.String("raw", chi.URLParam(r, "id")))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid consultation id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	status := models.ConsultationStatus(req.Status)
	if status == models.ConsultationScheduled && req.ScheduledAt == nil {
		log.Error("scheduled status without scheduled_at")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("scheduled_at is required for scheduling"))
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, status, req.ScheduledAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("consultation not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("consultation not found"))
			return
		}
		log.Error("failed to update consultation status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update consultation status"))
		return
	}

	actorUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	h.audit.Record(r.Context(), actorUID, "consultation_status_update", "consultations",
		strconv.Itoa(id), map[string]any{
			"status":       req.Status,
			"scheduled_at": req.ScheduledAt,
		})

	log.Info("consultation status updated", slog.Int("id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.OK())
}
