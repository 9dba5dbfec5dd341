package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/aprendaplus/platform-backend/internal/http/response"
	"github.com/aprendaplus/platform-backend/internal/lib/sl"
	"github.com/aprendaplus/platform-backend/internal/metrics"
	"github.com/aprendaplus/platform-backend/internal/ratelimit"
)

// RouteLimitMiddleware ограничивает частоту запросов на маршрут по IP
// клиента. Превышение лимита - 429 с заголовком Retry-After. Ошибка
// лимитера не блокирует запрос: сервис работает в режиме fail-open.
func RouteLimitMiddleware(limiter *ratelimit.Limiter, m *metrics.Metrics, log *slog.Logger,
	route string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), route, clientIP(r), limit, window)
			if err != nil {
				log.Warn("rate limiter unavailable", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				if m != nil {
					m.RateLimitRejected.WithLabelValues(route).Inc()
				}
				retryAfter := int(res.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP возвращает IP клиента: первый адрес X-Forwarded-For за
// балансировщиком, иначе адрес соединения.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
