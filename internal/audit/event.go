// Package audit records the lifecycle of intake results as structured events.
// Emission never blocks or fails the request path.
package audit

import "time"

// Action names a lifecycle step.
type Action string

const (
	ActionResultCreated       Action = "result_created"
	ActionResultEnriched      Action = "result_enriched"
	ActionResultPersistFailed Action = "result_persist_failed"
)

// Event is transport-agnostic so sinks can fan out.
type Event struct {
	Action    Action            `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id"`
	MCNumber  string            `json:"mc_number,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
