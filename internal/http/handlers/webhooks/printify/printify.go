// Package printify реализует приём вебхуков партнёра печати Printify.
//
// Подпись запроса проверяется как HMAC-SHA256 от сырого тела, закодированный
// в base64 и переданный в заголовке X-Printify-Signature.
package printify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/metrics"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/services/fulfillment"
)

// Request — структура события вебхука Printify.
type Request struct {
	Topic    string `json:"type"`
	Resource struct {
		ID   string `json:"id"`
		Data struct {
			Shipments []struct {
				Carrier string `json:"carrier"`
				Number  string `json:"number"`
				URL     string `json:"url"`
			} `json:"shipments"`
			Metadata struct {
				UserUID   string `json:"user_uid"`
				PaymentID int    `json:"payment_id"`
			} `json:"metadata"`
		} `json:"data"`
	} `json:"resource"`
}

// Service описывает интерфейс обработки событий партнёров фулфилмента.
type Service interface {
	HandleProviderEvent(ctx context.Context, evt fulfillment.ProviderEvent) error
}

// Handler обрабатывает вебхуки Printify.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
	metrics *metrics.Metrics
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secret string, m *metrics.Metrics) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  secret,
		metrics: m,
	}
}

func (h *Handler) countEvent(outcome string) {
	if h.metrics != nil {
		h.metrics.WebhookEvents.WithLabelValues("printify", outcome).Inc()
	}
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// topicStatus переводит топик события Printify во внутренний статус заказа.
func topicStatus(topic string) (models.FulfillmentStatus, bool) {
	switch topic {
	case "order:created":
		return models.FulfillmentCreated, true
	case "order:sent-to-production":
		return models.FulfillmentInProduction, true
	case "order:shipment:created":
		return models.FulfillmentShipped, true
	case "order:shipment:delivered":
		return models.FulfillmentDelivered, true
	case "order:canceled":
		return models.FulfillmentCancelled, true
	default:
		return "", false
	}
}

// ServeHTTP godoc
// @Summary Вебхук Printify
// @Description Принимает события о заказах печати по требованию от Printify.
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Param X-Printify-Signature header string true "HMAC-SHA256 подпись тела (base64)"
// @Success 200 {object} response.Response "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /webhooks/printify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhooks.printify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Printify-Signature")) {
		log.Error("signature mismatch")
		h.countEvent("rejected")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		log.Error("failed to decode webhook body", sl.Err(err))
		h.countEvent("invalid")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("webhook event received",
		slog.String("topic", req.Topic),
		slog.String("order_id", req.Resource.ID))

	status, known := topicStatus(req.Topic)
	if !known {
		// Незнакомые топики подтверждаем, иначе Printify отключит вебхук.
		log.Warn("unknown webhook topic", slog.String("topic", req.Topic))
		h.countEvent("skipped")
		render.JSON(w, r, response.OK())
		return
	}

	evt := fulfillment.ProviderEvent{
		Provider:  models.ProviderPrintify,
		OrderID:   req.Resource.ID,
		Status:    status,
		UserUID:   req.Resource.Data.Metadata.UserUID,
		PaymentID: req.Resource.Data.Metadata.PaymentID,
	}
	if len(req.Resource.Data.Shipments) > 0 {
		sh := req.Resource.Data.Shipments[0]
		evt.TrackingNumber = sh.Number
		evt.TrackingURL = sh.URL
		evt.Carrier = sh.Carrier
	}

	if err := h.service.HandleProviderEvent(r.Context(), evt); err != nil {
		log.Error("failed to handle provider event", sl.Err(err))
		h.countEvent("error")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	h.countEvent("processed")
	log.Info("webhook event processed", slog.String("topic", req.Topic))
	render.JSON(w, r, response.OK())
}
