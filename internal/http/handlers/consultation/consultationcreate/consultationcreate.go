// Package consultationcreate реализует публичный HTTP-обработчик формы
// записи на консультацию.
package consultationcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики заявок на консультацию.
type Service interface {
	Create(ctx context.Context, cmd models.CreateConsultationCommand) (int, error)
}

// Handler обрабатывает HTTP-запросы формы консультации.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запись на консультацию
// @Description Сохраняет заявку с формы и уведомляет команду. Публичный эндпоинт.
// @Tags Consultations
// @Accept  json
// @Produce  json
// @Param request body models.CreateConsultationCommand true "Данные заявки"
// @Success 200 {object} map[string]any "Заявка принята"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /consultations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.consultation.consultationcreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var cmd models.CreateConsultationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("email", cmd.Email))

	if err := h.validate.Struct(cmd); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	id, err := h.service.Create(r.Context(), cmd)
	if err != nil {
		log.Error("failed to create consultation request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create consultation request"))
		return
	}

	log.Info("consultation request created", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":      id,
		"message": "Recebemos sua solicitação, entraremos em contato em breve.",
	}))
}
