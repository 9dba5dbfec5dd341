// Package tracking реализует HTTP-обработчик выдачи трекинга заказа.
package tracking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/middlewarectx"
	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/services/fulfillment"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики фулфилмента.
type Service interface {
	GetTracking(ctx context.Context, userUID string, orderID int) (*models.FulfillmentOrder, error)
}

// Handler обрабатывает HTTP-запросы трекинга заказов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Трекинг заказа
// @Description Возвращает статус и трекинг заказа печати по требованию.
// @Tags Orders
// @Security BearerAuth
// @Produce  json
// @Param id path int true "ID заказа"
// @Success 200 {object} map[string]any "Состояние заказа"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Заказ принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /orders/{id}/tracking [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.fulfillment.tracking"

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

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		log.Error("invalid order id", slog.String("raw", chi.URLParam(r, "id")))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid order id"))
		return
	}

	order, err := h.service.GetTracking(r.Context(), userUID, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Error("order not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case errors.Is(err, fulfillment.ErrForbidden):
			log.Error("order belongs to another user", slog.Int("id", id))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
		default:
			log.Error("failed to get tracking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to get tracking"))
		}
		return
	}

	log.Info("tracking returned", slog.Int("id", id), slog.String("status", string(order.Status)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status":          order.Status,
		"tracking_number": order.TrackingNumber,
		"tracking_url":    order.TrackingURL,
		"carrier":         order.Carrier,
	}))
}
