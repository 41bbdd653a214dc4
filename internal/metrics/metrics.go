// Package metrics регистрирует метрики Prometheus сервиса и HTTP-middleware,
// которое их собирает. Метрики отдаются на /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/gym-membership/internal/models"
)

const namespace = "gym"

var (
	// HTTPRequests — число обработанных запросов по маршруту и коду ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration — длительность обработки запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// EventsPublished — доменные события по типу и результату публикации.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events by type and publish result.",
	}, []string{"type", "result"})

	// HistoryBuildDuration — время сборки истории участника.
	HistoryBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "build_duration_seconds",
		Help:      "Member history aggregation latency by variant.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"variant"})
)

// Middleware считает запросы и их длительность. Маршрут берётся из шаблона
// chi, чтобы идентификаторы в пути не раздували число серий.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Publisher — получатель доменных событий.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// CountingPublisher считает публикации событий и передаёт их дальше.
type CountingPublisher struct {
	next Publisher
}

// NewCountingPublisher оборачивает публикатор подсчётом событий.
func NewCountingPublisher(next Publisher) *CountingPublisher {
	return &CountingPublisher{next: next}
}

// Publish публикует событие и учитывает результат.
func (p *CountingPublisher) Publish(ctx context.Context, event models.Event) error {
	err := p.next.Publish(ctx, event)
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(event.Type, result).Inc()
	return err
}
