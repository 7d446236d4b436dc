// Package prom implements the MetricsSink port with Prometheus metrics.
//
// The sink registers its collectors against an injected Registerer; registry
// lifecycle (creation, /metrics exposure, reset between test runs) belongs to
// the composition root, not to the pipeline stages that emit through the port.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cfarleigh/releasegate/internal/domain/port/driven"
)

const namespace = "releasegate"

// Compile-time interface satisfaction checks.
var (
	_ driven.MetricsSink = (*Sink)(nil)
	_ driven.MetricsSink = Nop{}
)

// Sink holds the Prometheus collectors for the analysis pipeline.
type Sink struct {
	agentInvocations *prometheus.CounterVec
	agentDuration    *prometheus.HistogramVec
	ragChunks        *prometheus.CounterVec
	ragRetrieval     *prometheus.HistogramVec
	llmCost          *prometheus.CounterVec
}

// NewSink creates a Sink and registers its collectors with reg.
func NewSink(reg prometheus.Registerer) *Sink {
	factory := promauto.With(reg)

	return &Sink{
		agentInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_invocations_total",
				Help:      "Total number of pipeline agent invocations",
			},
			[]string{"agent"},
		),
		agentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_duration_seconds",
				Help:      "Duration of agent execution in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"agent"},
		),
		ragChunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rag_chunks_total",
				Help:      "Total number of documents ingested into the evidence index",
			},
			[]string{"source"},
		),
		ragRetrieval: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rag_retrieval_latency_seconds",
				Help:      "Latency of evidence retrieval in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"agent"},
		),
		llmCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_llm_cost_usd_total",
				Help:      "Total cost of LLM and embedding calls in USD",
			},
			[]string{"agent", "model"},
		),
	}
}

// IncAgentInvocations counts one invocation of the named pipeline stage.
func (s *Sink) IncAgentInvocations(agent string) {
	s.agentInvocations.WithLabelValues(agent).Inc()
}

// AgentTimer starts a duration timer for the named stage.
func (s *Sink) AgentTimer(agent string) func() {
	start := time.Now()
	return func() {
		s.agentDuration.WithLabelValues(agent).Observe(time.Since(start).Seconds())
	}
}

// RetrievalTimer starts a retrieval latency timer for the named stage.
func (s *Sink) RetrievalTimer(agent string) func() {
	start := time.Now()
	return func() {
		s.ragRetrieval.WithLabelValues(agent).Observe(time.Since(start).Seconds())
	}
}

// AddChunksIngested counts documents written to the evidence index.
func (s *Sink) AddChunksIngested(source string, n int) {
	s.ragChunks.WithLabelValues(source).Add(float64(n))
}

// AddLLMUsage records the cost of an LLM or embedding call in USD.
func (s *Sink) AddLLMUsage(agent, llmModel string, costUSD float64) {
	s.llmCost.WithLabelValues(agent, llmModel).Add(costUSD)
}

// Nop is a MetricsSink that discards everything. Used when metrics are
// disabled and as a default in tests.
type Nop struct{}

func (Nop) IncAgentInvocations(string)          {}
func (Nop) AgentTimer(string) func()            { return func() {} }
func (Nop) RetrievalTimer(string) func()        { return func() {} }
func (Nop) AddChunksIngested(string, int)       {}
func (Nop) AddLLMUsage(string, string, float64) {}
