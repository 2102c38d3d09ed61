package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns a private registry so a process can build more than one
// (tests do) without colliding on the default registerer. All methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	LLMRequests     *prometheus.CounterVec
	LLMDuration     *prometheus.HistogramVec
	LLMTokensUsed   *prometheus.CounterVec
	SessionRounds   prometheus.Histogram
	SessionsTotal   *prometheus.CounterVec
	EvaluationScore *prometheus.HistogramVec
	UndefinedScores *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	LogRowsAppended prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		LLMRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorsim_llm_requests_total",
				Help: "Total chat and embedding requests by role and status",
			},
			[]string{"role", "kind", "status"},
		),

		LLMDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tutorsim_llm_request_duration_seconds",
				Help:    "Remote completion latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"role"},
		),

		LLMTokensUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorsim_llm_tokens_used",
				Help: "Total LLM tokens used",
			},
			[]string{"role", "model", "type"},
		),

		SessionRounds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tutorsim_session_rounds",
				Help:    "Completed tutor/student rounds per session",
				Buckets: []float64{1, 2, 5, 10, 20, 50},
			},
		),

		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorsim_sessions_total",
				Help: "Sessions by outcome",
			},
			[]string{"outcome"},
		),

		EvaluationScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tutorsim_evaluation_score",
				Help:    "Summary scores by judge, role and metric",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
			[]string{"judge", "role", "metric"},
		),

		UndefinedScores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorsim_evaluation_undefined_total",
				Help: "Scores that could not be determined",
			},
			[]string{"judge", "role", "metric"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorsim_cache_hits_total",
				Help: "Total cache hits",
			},
			[]string{"cache_type"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorsim_cache_misses_total",
				Help: "Total cache misses",
			},
			[]string{"cache_type"},
		),

		LogRowsAppended: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tutorsim_log_rows_appended_total",
				Help: "Rows appended to the session log",
			},
		),
	}

	m.registry.MustRegister(
		m.LLMRequests,
		m.LLMDuration,
		m.LLMTokensUsed,
		m.SessionRounds,
		m.SessionsTotal,
		m.EvaluationScore,
		m.UndefinedScores,
		m.CacheHits,
		m.CacheMisses,
		m.LogRowsAppended,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(role, kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMRequests.WithLabelValues(role, kind, status).Inc()
	if kind == "chat" {
		m.LLMDuration.WithLabelValues(role).Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) AddTokens(role, model string, prompt, completion int) {
	if m == nil {
		return
	}
	m.LLMTokensUsed.WithLabelValues(role, model, "prompt").Add(float64(prompt))
	m.LLMTokensUsed.WithLabelValues(role, model, "completion").Add(float64(completion))
}

func (m *Metrics) ObserveScore(judge, role, metric string, value float64, defined bool) {
	if m == nil {
		return
	}
	if !defined {
		m.UndefinedScores.WithLabelValues(judge, role, metric).Inc()
		return
	}
	m.EvaluationScore.WithLabelValues(judge, role, metric).Observe(value)
}

func (m *Metrics) ObserveSession(outcome string, rounds int) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(outcome).Inc()
	m.SessionRounds.Observe(float64(rounds))
}

func (m *Metrics) CacheResult(cacheType string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		m.CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

func (m *Metrics) RowAppended() {
	if m == nil {
		return
	}
	m.LogRowsAppended.Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
