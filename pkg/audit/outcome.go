package audit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veilai/veil-oss/pkg/domain"
)

// ParseOutcome decodes a raw verifier payload into a leak verdict.
//
// LLM verifiers frequently wrap their JSON in markdown code fences even when
// asked not to, so known fencing is stripped before decoding. Callers must
// treat a parse error as a non-leak.
func ParseOutcome(payload string) (domain.LeakAuditOutcome, error) {
	cleaned := stripFences(payload)
	if cleaned == "" {
		return domain.LeakAuditOutcome{}, fmt.Errorf("audit: empty verifier payload")
	}

	var verdict struct {
		Leaked bool   `json:"leaked"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return domain.LeakAuditOutcome{}, fmt.Errorf("audit: decode verifier payload: %w", err)
	}

	return domain.LeakAuditOutcome{Leaked: verdict.Leaked, Reason: verdict.Reason}, nil
}

func stripFences(payload string) string {
	cleaned := strings.TrimSpace(payload)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
