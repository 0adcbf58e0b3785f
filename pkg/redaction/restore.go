package redaction

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/veilai/veil-oss/pkg/domain"
	"github.com/veilai/veil-oss/pkg/vault"
)

// RestoreOptions carry per-call restoration settings.
type RestoreOptions struct {
	// EnforcePolicy controls the per-token restoration gate. When true
	// (the normal mode) a single forbidden token aborts the whole call.
	EnforcePolicy bool
}

// Restorer resolves redaction tokens back to their original values.
type Restorer struct {
	vault domain.TokenVault
}

// NewRestorer wires the restoration pipeline to the vault.
func NewRestorer(tokenVault domain.TokenVault) *Restorer {
	return &Restorer{vault: tokenVault}
}

// Restore substitutes vaulted originals for every token-shaped substring in
// text.
//
// With policy enforcement on, any token minted under restorationAllowed=false
// fails the entire call with a PolicyViolationError before any substitution
// happens; the permission recorded at mint time is authoritative no matter
// what policy the caller supplies today. Missing tokens (expired or purged,
// indistinguishable here) degrade gracefully: the token stays literal and is
// reported in TokensMissing with a warning.
func (r *Restorer) Restore(ctx context.Context, text string, opts RestoreOptions) (domain.RestorationResult, error) {
	ctx, span := otel.Tracer("veil.redaction").Start(ctx, "redaction.restore")
	defer span.End()

	tokens := uniqueTokens(vault.ExtractTokens(text))
	span.SetAttributes(attribute.Int("restore.tokens.extracted", len(tokens)))

	result := domain.RestorationResult{RestoredText: text}
	if len(tokens) == 0 {
		return result, nil
	}

	if opts.EnforcePolicy {
		for _, token := range tokens {
			meta, ok, err := r.vault.GetMetadata(ctx, token)
			if err != nil {
				return domain.RestorationResult{}, fmt.Errorf("restore: read metadata: %w", err)
			}
			if ok && !meta.RestorationAllowed {
				return domain.RestorationResult{}, &domain.PolicyViolationError{
					Token:   token,
					Context: meta.PolicyContext,
				}
			}
		}
	}

	for _, token := range tokens {
		value, ok, err := r.vault.Get(ctx, token)
		if err != nil {
			return domain.RestorationResult{}, fmt.Errorf("restore: read value: %w", err)
		}
		if !ok {
			result.TokensMissing = append(result.TokensMissing, token)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("token %s not found in vault (expired or purged)", token))
			continue
		}
		result.RestoredText = strings.ReplaceAll(result.RestoredText, token, value)
		result.TokensFound++
	}

	return result, nil
}

// uniqueTokens preserves first-occurrence order while dropping duplicates.
func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
