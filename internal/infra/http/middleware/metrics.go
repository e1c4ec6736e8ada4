package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
)

const namespace = "tork_crm"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Requisições HTTP por método, rota e status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latência das requisições HTTP.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Requisições HTTP em andamento.",
	})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chatwoot",
		Name:      "webhook_events_total",
		Help:      "Webhooks do Chatwoot por evento e resultado.",
	}, []string{"event", "status", "reason"})

	webhookAuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chatwoot",
		Name:      "webhook_auth_failures_total",
		Help:      "Webhooks recusados na autenticação, por motivo.",
	}, []string{"reason"})

	syncJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chatwoot",
		Name:      "sync_jobs_total",
		Help:      "Jobs de sincronização por tipo e resultado.",
	}, []string{"kind", "result"})

	integrationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "integration_errors_total",
		Help:      "Falhas em integrações externas por serviço e passo.",
	}, []string{"service", "step"})
)

// Metrics mede toda requisição. O label de rota vem do chi, então precisa rodar dentro do router.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlight.Inc()
		defer inFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(began).Seconds())
	})
}

// routePattern usa o padrão da rota do chi (/crm/leads/{id}) para não explodir a cardinalidade.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RecordWebhookEvent conta o evento. O nome vem do corpo, então qualquer evento que não tratamos
// vira "other" para não abrir uma série nova por valor recebido.
func RecordWebhookEvent(event, status, reason string) {
	webhookEvents.WithLabelValues(eventLabel(event), status, reason).Inc()
}

func eventLabel(event string) string {
	switch event {
	case chatwoot.EventContactCreated, chatwoot.EventConversationUpdated, chatwoot.EventMessageCreated:
		return event
	}
	return "other"
}

func RecordWebhookAuthFailure(reason string) {
	webhookAuthFailures.WithLabelValues(reason).Inc()
}

func RecordSyncJob(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	syncJobs.WithLabelValues(kind, result).Inc()
}

func RecordIntegrationError(service, step string) {
	integrationErrors.WithLabelValues(service, step).Inc()
}
