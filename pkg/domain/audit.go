package domain

import "context"

// LeakAuditOutcome is the parsed verdict of one leak-audit pass.
type LeakAuditOutcome struct {
	Leaked bool   `json:"leaked"`
	Reason string `json:"reason,omitempty"`
	// PurgedTokens lists the tokens removed from the vault because of this
	// verdict. Empty unless Leaked is true.
	PurgedTokens []string `json:"purged_tokens,omitempty"`
}

// Verifier re-checks already-redacted text for residual sensitive
// information. The returned payload is raw verifier output: either a JSON
// document or text wrapped in markdown code fencing that callers must strip
// before parsing. Verifiers only ever see redacted text, never originals.
type Verifier interface {
	Check(ctx context.Context, redactedText string) (string, error)
}

// AuditSink receives restoration audit records. Persistence lives outside the
// engine; the shipped implementation only logs.
type AuditSink interface {
	Record(ctx context.Context, record RestorationRecord)
}
