// Package paymentcreate реализует HTTP-обработчик создания платежа.
//
// Платёж создаётся в платёжном шлюзе от имени авторизованного пользователя,
// способ оплаты указывается в теле запроса: pix, boleto или credit_card.
package paymentcreate

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
	"github.com/aprendaplus/platform-backend/internal/services/payment"
)

// Service описывает интерфейс бизнес-логики создания платежей.
type Service interface {
	CreatePayment(ctx context.Context, userUID string, cmd models.CreatePaymentCommand) (*models.Payment, error)
}

// Handler обрабатывает HTTP-запросы для создания платежа.
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
// @Summary Создание платежа
// @Description Создает платёж в платёжном шлюзе для текущего пользователя.
// @Tags Payments
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.CreatePaymentCommand true "Данные платежа"
// @Success 200 {object} map[string]any "Платёж создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentcreate"

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

	var cmd models.CreatePaymentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded",
		slog.String("method", cmd.Method),
		slog.String("product_kind", cmd.ProductKind))

	if err := h.validate.Struct(cmd); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	created, err := h.service.CreatePayment(r.Context(), userUID, cmd)
	if err != nil {
		switch {
		case errors.Is(err, taxid.ErrInvalid):
			log.Error("invalid tax id")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid tax id"))
		case errors.Is(err, payment.ErrCardTokenRequired):
			log.Error("card token required")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("card_token is required for credit_card payments"))
		default:
			log.Error("failed to create payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create payment"))
		}
		return
	}

	log.Info("payment created",
		slog.String("external_id", created.ExternalID),
		slog.String("status", string(created.Status)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"external_id": created.ExternalID,
		"status":      created.Status,
		"invoice_url": created.InvoiceURL,
		"pix_qr_code": created.PixQrCode,
	}))
}
