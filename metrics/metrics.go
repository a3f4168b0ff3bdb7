// Package metrics records gateway, tool, directive and score-correction
// metrics with Prometheus.
//
// Information Hiding:
// - Metric names, labels and buckets hidden
// - Nil receivers are no-ops so callers never check for a recorder
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drwin"

// Recorder holds all Prometheus metrics for the assistant. It satisfies
// llm.Observer, tools.ExecutionObserver, tools.CorrectionObserver and
// agent.Observer.
type Recorder struct {
	LLMCalls        *prometheus.CounterVec
	LLMDuration     *prometheus.HistogramVec
	ToolExecutions  *prometheus.CounterVec
	ToolDuration    *prometheus.HistogramVec
	Directives      *prometheus.CounterVec
	ScoreCorrection *prometheus.CounterVec
	Turns           *prometheus.CounterVec
	TurnDuration    prometheus.Histogram
	CacheLookups    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewRecorder creates the metrics and registers them on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_calls_total",
			Help: "Generative gateway calls by provider, call site and status.",
		}, []string{"provider", "label", "status"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_call_duration_seconds",
			Help:    "Generative gateway call latency.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider", "label"}),
		ToolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tool_executions_total",
			Help: "Tool executions by tool and status.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tool_execution_duration_seconds",
			Help:    "Tool execution latency.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 180},
		}, []string{"tool"}),
		Directives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "directive_strategy_total",
			Help: "Turns by the directive parsing strategy that matched.",
		}, []string{"strategy"}),
		ScoreCorrection: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "score_corrections_total",
			Help: "Eligibility score corrections by rule.",
		}, []string{"rule"}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "turns_total",
			Help: "Conversation turns by status.",
		}, []string{"status"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "turn_duration_seconds",
			Help:    "End-to-end turn latency.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_cache_lookups_total",
			Help: "External fetch cache lookups by result (hit, miss).",
		}, []string{"result"}),
		gatherer: reg,
	}
	reg.MustRegister(r.LLMCalls, r.LLMDuration, r.ToolExecutions, r.ToolDuration,
		r.Directives, r.ScoreCorrection, r.Turns, r.TurnDuration, r.CacheLookups)
	return r
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveLLMCall records one gateway call.
func (r *Recorder) ObserveLLMCall(provider, label string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.LLMCalls.WithLabelValues(provider, label, status(err == nil)).Inc()
	r.LLMDuration.WithLabelValues(provider, label).Observe(d.Seconds())
}

// ObserveToolExecution records one tool execution.
func (r *Recorder) ObserveToolExecution(tool string, d time.Duration, success bool) {
	if r == nil {
		return
	}
	r.ToolExecutions.WithLabelValues(tool, status(success)).Inc()
	r.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveScoreCorrection records one fired correction rule.
func (r *Recorder) ObserveScoreCorrection(rule string) {
	if r == nil {
		return
	}
	r.ScoreCorrection.WithLabelValues(rule).Inc()
}

// ObserveDirectiveStrategy records which parsing strategy matched a reply.
func (r *Recorder) ObserveDirectiveStrategy(strategy string) {
	if r == nil {
		return
	}
	r.Directives.WithLabelValues(strategy).Inc()
}

// ObserveTurn records one completed turn.
func (r *Recorder) ObserveTurn(d time.Duration, success bool) {
	if r == nil {
		return
	}
	r.Turns.WithLabelValues(status(success)).Inc()
	r.TurnDuration.Observe(d.Seconds())
}

// ObserveCacheLookup records one fetch cache lookup.
func (r *Recorder) ObserveCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
