package redaction

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/veilai/veil-oss/pkg/domain"
	"github.com/veilai/veil-oss/pkg/policy"
)

// Result is the outcome of one redaction call. Tokens and Scores are parallel
// lists in text order and are scoped to this single call, not the whole
// vault.
type Result struct {
	RedactedText string
	Scores       []float64
	Tokens       []string
}

// Pipeline converts detector output plus an optional policy into redacted
// text and vault entries.
type Pipeline struct {
	engine *policy.Engine
	vault  domain.TokenVault

	mu  sync.RWMutex
	ttl time.Duration
}

// NewPipeline wires the redaction pipeline to its collaborators. ttl is the
// vault lifetime applied to every minted entry.
func NewPipeline(engine *policy.Engine, vault domain.TokenVault, ttl time.Duration) *Pipeline {
	return &Pipeline{engine: engine, vault: vault, ttl: ttl}
}

// SetTTL changes the vault lifetime applied to entries minted from now on.
// Existing entries keep the TTL they were minted with. Called by the config
// reload path.
func (p *Pipeline) SetTTL(ttl time.Duration) {
	p.mu.Lock()
	p.ttl = ttl
	p.mu.Unlock()
}

func (p *Pipeline) entryTTL() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ttl
}

// Redact applies spans to text, minting one vault entry per surviving span.
//
// Spans are applied in descending start-offset order so earlier replacements
// never shift the offsets of spans not yet applied. Spans that intersect an
// already replaced region are skipped: splicing into a region that now holds
// a token would corrupt the token text and strand its vault entry. When pol
// is nil every span survives and restoration defaults to allowed.
func (p *Pipeline) Redact(ctx context.Context, text string, spans []domain.EntitySpan, pol *domain.RedactionPolicy) (Result, error) {
	ctx, span := otel.Tracer("veil.redaction").Start(ctx, "redaction.redact")
	defer span.End()

	meta := domain.EntryMetadata{RestorationAllowed: true}
	if pol != nil {
		spans = p.engine.Filter(spans, *pol)
		meta = domain.EntryMetadata{
			PolicyContext:      pol.Context,
			RestorationAllowed: pol.RestorationAllowed,
		}
	}

	applied := make([]domain.EntitySpan, 0, len(spans))
	ordered := make([]domain.EntitySpan, len(spans))
	copy(ordered, spans)
	// Descending start; for equal starts the wider span goes first so the
	// narrower one is seen as intersecting and skipped.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start == ordered[j].Start {
			return ordered[i].End > ordered[j].End
		}
		return ordered[i].Start > ordered[j].Start
	})

	redacted := text
	ttl := p.entryTTL()
	var tokens []string
	var scores []float64

	for _, current := range ordered {
		if current.Start < 0 || current.End > len(text) || current.Start >= current.End {
			return Result{}, fmt.Errorf("redaction: span [%d,%d) out of bounds for text of length %d",
				current.Start, current.End, len(text))
		}
		if intersectsAny(current, applied) {
			continue
		}

		original := text[current.Start:current.End]
		token, err := p.vault.Mint(ctx, original, meta, ttl)
		if err != nil {
			return Result{}, fmt.Errorf("redaction: mint token: %w", err)
		}

		redacted = redacted[:current.Start] + token + redacted[current.End:]
		applied = append(applied, current)
		tokens = append(tokens, token)
		scores = append(scores, current.Score)
	}

	// Application ran back-to-front; flip so callers see text order.
	reverseStrings(tokens)
	reverseFloats(scores)

	span.SetAttributes(
		attribute.Int("redaction.spans.survived", len(tokens)),
		attribute.Int("redaction.spans.input", len(spans)),
	)

	return Result{RedactedText: redacted, Scores: scores, Tokens: tokens}, nil
}

func intersectsAny(span domain.EntitySpan, applied []domain.EntitySpan) bool {
	for _, region := range applied {
		if span.Start < region.End && span.End > region.Start {
			return true
		}
	}
	return false
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseFloats(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
