// Package paymentwebhook реализует приём вебхуков платёжного шлюза Cobrafácil.
//
// Шлюз подтверждает доставку события по HTTP 200, поэтому обработчик отвечает
// успехом и на неизвестные события: иначе шлюз будет бесконечно их повторять.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/metrics"
)

// Request — структура события вебхука шлюза. Для платежей по подписке
// шлюз кладёт в объект платежа идентификатор подписки.
type Request struct {
	Event   string `json:"event"`
	Payment struct {
		ID           string `json:"id"`
		Subscription string `json:"subscription,omitempty"`
	} `json:"payment"`
}

// Service описывает интерфейс обработки событий платёжного шлюза.
type Service interface {
	ProcessGatewayEvent(ctx context.Context, event, externalID, subscriptionID string) error
}

// Handler обрабатывает вебхуки платёжного шлюза.
type Handler struct {
	log          *slog.Logger
	service      Service
	webhookToken string
	metrics      *metrics.Metrics
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, webhookToken string, m *metrics.Metrics) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		webhookToken: webhookToken,
		metrics:      m,
	}
}

func (h *Handler) countEvent(outcome string) {
	if h.metrics != nil {
		h.metrics.WebhookEvents.WithLabelValues("gateway", outcome).Inc()
	}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного шлюза
// @Description Принимает события об изменении статуса платежа от шлюза.
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Param access-token header string true "Токен вебхука шлюза"
// @Success 200 {object} response.Response "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный токен"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Ненастроенный токен никогда не пропускает запрос.
	token := r.Header.Get("access-token")
	if h.webhookToken == "" || !hmac.Equal([]byte(token), []byte(h.webhookToken)) {
		log.Error("webhook token mismatch")
		h.countEvent("rejected")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid webhook token"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode webhook body", sl.Err(err))
		h.countEvent("invalid")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("webhook event received",
		slog.String("event", req.Event),
		slog.String("payment_id", req.Payment.ID))

	if err := h.service.ProcessGatewayEvent(r.Context(), req.Event, req.Payment.ID, req.Payment.Subscription); err != nil {
		log.Error("failed to process gateway event", sl.Err(err))
		h.countEvent("error")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	h.countEvent("processed")
	log.Info("webhook event processed", slog.String("event", req.Event))
	render.JSON(w, r, response.OK())
}
