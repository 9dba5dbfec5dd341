// Package prices реализует публичный HTTP-обработчик каталога услуг.
package prices

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	ListPrices(ctx context.Context) ([]*models.ServicePrice, error)
}

// Handler обрабатывает HTTP-запросы каталога услуг.
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
// @Summary Цены каталога услуг
// @Description Возвращает активные позиции каталога услуг. Публичный эндпоинт.
// @Tags Catalog
// @Produce  json
// @Success 200 {object} map[string]any "Позиции каталога"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /prices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.prices"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	prices, err := h.service.ListPrices(r.Context())
	if err != nil {
		log.Error("failed to list prices", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list prices"))
		return
	}

	log.Info("prices listed", slog.Int("count", len(prices)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"prices": prices,
	}))
}
