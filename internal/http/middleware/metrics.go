package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/techblog/internal/metrics"
)

// unmatchedRoute - метка для запросов, не попавших ни в один маршрут.
const unmatchedRoute = "unmatched"

// Metrics считает запросы и латентность по шаблону маршрута chi
// (а не по сырому пути, чтобы не раздувать кардинальность).
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			route := unmatchedRoute
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}

			m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status())).Inc()
			m.Duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
