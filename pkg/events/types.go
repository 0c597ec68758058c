// Package events defines the audit event emitted after every routed call and
// the publishers that deliver it.
package events

// RouteEvent describes one finished Route call.
type RouteEvent struct {
	CallID       string   `json:"callId"`
	Proc         string   `json:"proc"`
	Version      int      `json:"version"`
	AccountID    string   `json:"accountId,omitempty"`
	Status       bool     `json:"status"`
	ErrorCodes   []string `json:"errorCodes"`
	WarningCodes []string `json:"warningCodes"`
	// State is the last dispatcher state before FINISHED.
	State      string `json:"state"`
	DurationMs int64  `json:"durationMs"`
	Timestamp  string `json:"timestamp"`
}
