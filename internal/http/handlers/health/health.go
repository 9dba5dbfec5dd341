// Package health реализует проверку живости сервиса.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
)

// Checker проверяет готовность зависимости.
type Checker func() error

type Handler struct {
	log   *slog.Logger
	check Checker
}

func New(log *slog.Logger, check Checker) *Handler {
	return &Handler{
		log:   log,
		check: check,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.check != nil {
		if err := h.check(); err != nil {
			h.log.Error("health check failed", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database is not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
