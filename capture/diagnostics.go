package capture

import "time"

// DiagnosticKind identifies a capture health event.
type DiagnosticKind string

const (
	DiagTapStarted        DiagnosticKind = "tap_started"
	DiagTapStopped        DiagnosticKind = "tap_stopped"
	DiagPermissionDenied  DiagnosticKind = "permission_denied"
	DiagTapRestarted      DiagnosticKind = "tap_restarted"
	DiagRestartExhausted  DiagnosticKind = "restart_exhausted"
	DiagStaleHoldRecover  DiagnosticKind = "stale_hold_recovered"
	DiagDefinitionChanged DiagnosticKind = "definition_changed"
)

// Diagnostic is a structured capture health event, suitable for logging,
// persistence, and live monitoring.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Time    time.Time      `json:"time"`
	Outcome string         `json:"outcome"` // "ok", "failed", "suppressed", ...
	Detail  string         `json:"detail,omitempty"`
}
