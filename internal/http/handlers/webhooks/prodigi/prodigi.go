// Package prodigi реализует приём вебхуков партнёра печати Prodigi.
//
// Схема подписи та же, что у Printify: HMAC-SHA256 от сырого тела в base64,
// заголовок X-Prodigi-Signature.
package prodigi

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

// Request — структура события вебхука Prodigi.
type Request struct {
	Order struct {
		ID     string `json:"id"`
		Status struct {
			Stage string `json:"stage"`
		} `json:"status"`
		Shipments []struct {
			Carrier  string `json:"carrier"`
			Tracking struct {
				Number string `json:"number"`
				URL    string `json:"url"`
			} `json:"tracking"`
		} `json:"shipments"`
		Metadata struct {
			UserUID   string `json:"user_uid"`
			PaymentID int    `json:"payment_id"`
		} `json:"metadata"`
	} `json:"order"`
}

// Service описывает интерфейс обработки событий партнёров фулфилмента.
type Service interface {
	HandleProviderEvent(ctx context.Context, evt fulfillment.ProviderEvent) error
}

// Handler обрабатывает вебхуки Prodigi.
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
		h.metrics.WebhookEvents.WithLabelValues("prodigi", outcome).Inc()
	}
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ServeHTTP godoc
// @Summary Вебхук Prodigi
// @Description Принимает события о заказах печати по требованию от Prodigi.
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Param X-Prodigi-Signature header string true "HMAC-SHA256 подпись тела (base64)"
// @Success 200 {object} response.Response "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /webhooks/prodigi [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhooks.prodigi"

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

	if !h.verifySignature(body, r.Header.Get("X-Prodigi-Signature")) {
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
		slog.String("stage", req.Order.Status.Stage),
		slog.String("order_id", req.Order.ID))

	evt := fulfillment.ProviderEvent{
		Provider:  models.ProviderProdigi,
		OrderID:   req.Order.ID,
		Status:    fulfillment.MapProdigiStatus(req.Order.Status.Stage),
		UserUID:   req.Order.Metadata.UserUID,
		PaymentID: req.Order.Metadata.PaymentID,
	}
	if len(req.Order.Shipments) > 0 {
		sh := req.Order.Shipments[0]
		evt.TrackingNumber = sh.Tracking.Number
		evt.TrackingURL = sh.Tracking.URL
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
	log.Info("webhook event processed", slog.String("order_id", req.Order.ID))
	render.JSON(w, r, response.OK())
}
