package driven

// MetricsSink defines the driven port for pipeline observability. Each stage
// reports invocation counts, durations, and (for LLM-backed stages) usage
// cost through this interface; registry lifecycle belongs to whoever
// assembles the pipeline, never to the stages themselves.
type MetricsSink interface {
	// IncAgentInvocations counts one invocation of the named pipeline stage.
	IncAgentInvocations(agent string)

	// AgentTimer starts a duration timer for the named stage and returns the
	// stop function that records the elapsed time.
	AgentTimer(agent string) func()

	// RetrievalTimer starts a timer for an evidence retrieval performed by
	// the named stage.
	RetrievalTimer(agent string) func()

	// AddChunksIngested counts documents written to the evidence index,
	// labeled by their source.
	AddChunksIngested(source string, n int)

	// AddLLMUsage records the cost of an LLM or embedding call in USD.
	AddLLMUsage(agent, llmModel string, costUSD float64)
}
