// Package verify реализует публичную проверку сертификата по коду.
//
// Отозванный сертификат неотличим от несуществующего: оба дают 404.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/models"
	"github.com/aprendaplus/platform-backend/internal/storage/repository"
)

// Service описывает интерфейс проверки сертификатов.
type Service interface {
	VerifyCertificate(ctx context.Context, code string) (*models.Certificate, error)
}

// Handler обрабатывает HTTP-запросы проверки сертификатов.
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
// @Summary Проверка сертификата
// @Description Проверяет подлинность сертификата по публичному коду.
// @Tags Certificates
// @Produce  json
// @Param code path string true "Код сертификата"
// @Success 200 {object} map[string]any "Сертификат действителен"
// @Failure 404 {object} response.ErrorResponse "Сертификат не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /certificates/verify/{code} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.certificates.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := chi.URLParam(r, "code")
	if code == "" {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("certificate not found"))
		return
	}

	cert, err := h.service.VerifyCertificate(r.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("certificate not found", slog.String("code", code))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("certificate not found"))
			return
		}
		log.Error("failed to verify certificate", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to verify certificate"))
		return
	}
	if cert == nil {
		log.Info("certificate revoked", slog.String("code", code))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("certificate not found"))
		return
	}

	log.Info("certificate verified", slog.String("code", code))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"student_name": cert.StudentName,
		"course_name":  cert.CourseName,
		"issued_at":    cert.IssuedAt,
	}))
}
