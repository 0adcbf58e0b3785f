package domain

// RestorationResult summarises one restoration pass over a redacted text.
type RestorationResult struct {
	RestoredText string `json:"restored_text"`
	// TokensFound counts distinct tokens resolved from the vault.
	TokensFound int `json:"tokens_found"`
	// TokensMissing lists tokens that were absent (expired or purged) and
	// therefore left literal in the output.
	TokensMissing []string `json:"tokens_missing,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// RestorationRecord is the audit payload emitted once per restoration
// attempt. The engine owns no audit storage; persistence is an external
// collaborator behind AuditSink.
type RestorationRecord struct {
	RequestID      string            `json:"request_id"`
	RedactedText   string            `json:"redacted_text"`
	RestoredText   string            `json:"restored_text,omitempty"`
	TokenCount     int               `json:"token_count"`
	Success        bool              `json:"success"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	ClientMetadata map[string]string `json:"client_metadata,omitempty"`
}
