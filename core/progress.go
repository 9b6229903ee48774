package core

// SearchProgress is an incremental status update emitted while a multi-engine
// search is in flight.
type SearchProgress struct {
	Engine           string `json:"engine_name"`
	Status           string `json:"status"` // starting, success, failed, timeout, early_exit, high_failure_rate, complete
	ResultsCount     int    `json:"results_count"`
	TotalEngines     int    `json:"total_engines"`
	CompletedEngines int    `json:"completed_engines"`
	TotalResults     int    `json:"total_results"`
	Message          string `json:"message"`
}

// ProgressSink receives capability-internal status while tools execute. The
// sink is passed explicitly through the call chain rather than installed in
// ambient state, so updates from one session can never leak into another.
//
// Implementations must tolerate concurrent writers: multiple tools may run in
// the same turn and report from separate goroutines.
type ProgressSink interface {
	SearchProgress(p SearchProgress)
	SubAgentStarted(agentType string)
	SubAgentFinished(agentType, analysis string, success bool, errMsg string)
}

// NopSink discards all progress updates. Used when no subscriber is attached.
type NopSink struct{}

// SearchProgress discards the update.
func (NopSink) SearchProgress(SearchProgress) {}

// SubAgentStarted discards the update.
func (NopSink) SubAgentStarted(string) {}

// SubAgentFinished discards the update.
func (NopSink) SubAgentFinished(string, string, bool, string) {}
