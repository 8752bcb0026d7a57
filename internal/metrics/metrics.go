package metrics

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/account-model/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Account metrics

	ContactAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "contact_attempts_total",
		Help:      "Contact requests, by channel and outcome.",
	}, []string{"channel", "outcome"})

	ChargesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "charges_total",
		Help:      "Charge requests, by payment method and outcome.",
	}, []string{"method", "outcome"})

	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "email_verifications_total",
		Help:      "Email verification requests and confirmations, by outcome.",
	}, []string{"stage", "outcome"})

	UserMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "user_mutations_total",
		Help:      "User updates, by operation and outcome.",
	}, []string{"operation", "outcome"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "accounts",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		ContactAttemptsTotal,
		ChargesTotal,
		VerificationsTotal,
		UserMutationsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// Outcome maps an error to the "outcome" label value.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

type prober interface {
	Liveness(ctx context.Context) health.HealthResult
	Readiness(ctx context.Context) health.HealthResult
}

// NewServer serves /metrics, /healthz and /readyz on a separate port.
func NewServer(addr string, checker prober) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, res health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if res.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(res)
}
