package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name when none is configured.
const DefaultNamespace = "commerceapi"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	failures       *prom.CounterVec
	retryDecisions *prom.CounterVec
	retryDelay     *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// registry gets a private one; an empty namespace uses DefaultNamespace.
func NewPrometheusRecorder(reg prom.Registerer, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.failures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failures presented to callers by kind, category and status",
		}, []string{"kind", "category", "status"})
		pr.retryDecisions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "retry_decisions_total",
			Help:      "Retry advice given per failure kind",
		}, []string{"kind", "decision"})
		pr.retryDelay = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "retry_delay_seconds",
			Help:      "Advised delay before a retry",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind"})
		reg.MustRegister(pr.failures, pr.retryDecisions, pr.retryDelay)
	})
	return pr
}

func (p *PrometheusRecorder) IncFailure(kind, category string, status int) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(kindLabel(kind), category, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncRetryDecision(kind string, retry bool) {
	if p == nil || p.retryDecisions == nil {
		return
	}
	p.retryDecisions.WithLabelValues(kindLabel(kind), decisionLabel(retry)).Inc()
}

func (p *PrometheusRecorder) ObserveRetryDelay(kind string, d time.Duration) {
	if p == nil || p.retryDelay == nil {
		return
	}
	p.retryDelay.WithLabelValues(kindLabel(kind)).Observe(d.Seconds())
}
