package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grabmart",
		Name:      "http_requests_total",
		Help:      "Количество HTTP-запросов по маршруту, методу и коду ответа.",
	}, []string{"route", "method", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grabmart",
		Name:      "http_request_duration_seconds",
		Help:      "Длительность обработки HTTP-запросов.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ordersGrabbedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grabmart",
		Name:      "orders_grabbed_total",
		Help:      "Количество успешно выданных заказов.",
	})

	ordersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grabmart",
		Name:      "orders_confirmed_total",
		Help:      "Количество подтверждённых заказов.",
	})
)

type metricsResponseWriter struct {
	http.ResponseWriter
	status int
}

func (m *metricsResponseWriter) WriteHeader(code int) {
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware собирает счётчики и гистограммы HTTP-запросов.
// Маршрут берётся из шаблона chi, чтобы не раздувать кардинальность метрик.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(mw, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(mw.status)).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
