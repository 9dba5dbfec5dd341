// Package subscriptioncreate реализует HTTP-обработчик оформления подписки.
package subscriptioncreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/aprendaplus/platform-backend/internal/http/middlewarectx"
	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/lib/taxid"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики подписок.
type Service interface {
	CreateSubscription(ctx context.Context, userUID string, cmd models.CreateSubscriptionCommand) (*models.Subscription, error)
}

// Handler обрабатывает HTTP-запросы для оформления подписки.
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
// @Summary Оформление подписки
// @Description Создаёт рекуррентное списание по карте для текущего пользователя.
// @Tags Subscriptions
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.CreateSubscriptionCommand true "Данные подписки"
// @Success 200 {object} map[string]any "Подписка оформлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.subscriptioncreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("missing user uid in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var cmd models.CreateSubscriptionCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded",
		slog.String("plan", cmd.Plan),
		slog.String("cycle", cmd.Cycle))

	if err := h.validate.Struct(cmd); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	sub, err := h.service.CreateSubscription(r.Context(), userUID, cmd)
	if err != nil {
		if errors.Is(err, taxid.ErrInvalid) {
			log.Error("invalid tax id")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid tax id"))
			return
		}
		log.Error("failed to create subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create subscription"))
		return
	}

	log.Info("subscription created",
		slog.Int("id", sub.ID),
		slog.String("external_id", sub.ExternalID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":          sub.ID,
		"external_id": sub.ExternalID,
		"status":      sub.Status,
	}))
}
