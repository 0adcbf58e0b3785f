package audit

import (
	"context"
	"log/slog"

	"github.com/veilai/veil-oss/pkg/domain"
)

// SlogSink logs restoration audit records. Persistent audit storage lives
// outside the engine; this sink is the default wiring for deployments that
// ship records through log collection.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink constructs a sink writing to the supplied logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With("component", "audit.sink")}
}

// Record emits one restoration attempt. Text bodies are summarised by length
// only: restored output contains raw sensitive values and must not reach logs.
func (s *SlogSink) Record(_ context.Context, record domain.RestorationRecord) {
	s.logger.Info("restoration attempt",
		"request_id", record.RequestID,
		"token_count", record.TokenCount,
		"redacted_len", len(record.RedactedText),
		"restored_len", len(record.RestoredText),
		"success", record.Success,
		"error", record.ErrorMessage,
		"client", record.ClientMetadata,
	)
}
