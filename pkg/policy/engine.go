package policy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/veilai/veil-oss/pkg/domain"
)

// Engine is a threadsafe catalog of named redaction policies. It resolves
// contexts, merges request-level overrides, and filters detector spans.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]domain.RedactionPolicy
}

// NewEngine constructs an Engine pre-populated with the builtin presets.
func NewEngine() *Engine {
	e := &Engine{policies: make(map[string]domain.RedactionPolicy)}
	for _, preset := range []domain.RedactionPolicy{GeneralPolicy(), HealthcarePolicy(), FinancePolicy()} {
		e.policies[preset.Context] = preset
	}
	return e
}

// Register inserts or replaces a policy using its context as the identifier.
func (e *Engine) Register(policy domain.RedactionPolicy) error {
	if strings.TrimSpace(policy.Context) == "" {
		return fmt.Errorf("policy: context name is required")
	}

	e.mu.Lock()
	e.policies[policy.Context] = policy
	e.mu.Unlock()
	return nil
}

// Load resolves a policy by context name.
func (e *Engine) Load(context string) (domain.RedactionPolicy, error) {
	e.mu.RLock()
	policy, ok := e.policies[context]
	e.mu.RUnlock()
	if !ok {
		return domain.RedactionPolicy{}, fmt.Errorf("%w: %q (available: %s)",
			domain.ErrPolicyNotFound, context, strings.Join(e.Contexts(), ", "))
	}
	return policy, nil
}

// Contexts returns the sorted names of all registered policy contexts.
func (e *Engine) Contexts() []string {
	e.mu.RLock()
	names := make([]string, 0, len(e.policies))
	for name := range e.policies {
		names = append(names, name)
	}
	e.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Merge applies request-level overrides onto a base policy. Present override
// fields replace the base field; nil fields inherit. An override naming an
// unknown context keeps the base context.
func (e *Engine) Merge(base domain.RedactionPolicy, override *domain.PolicyOverride) domain.RedactionPolicy {
	if override == nil {
		return base
	}

	merged := base
	if override.Context != nil {
		e.mu.RLock()
		_, known := e.policies[*override.Context]
		e.mu.RUnlock()
		if known {
			merged.Context = *override.Context
		}
	}
	if override.EnabledEntities != nil {
		merged.EnabledEntities = append([]string(nil), override.EnabledEntities...)
	}
	if override.DisabledEntities != nil {
		merged.DisabledEntities = append([]string(nil), override.DisabledEntities...)
	}
	if override.RestorationAllowed != nil {
		merged.RestorationAllowed = *override.RestorationAllowed
	}
	if override.MinConfidenceThreshold != nil {
		merged.MinConfidenceThreshold = *override.MinConfidenceThreshold
	}
	return merged
}

// Filter keeps only the spans the policy allows: entity type permitted
// (disabled check first) and confidence at or above the threshold. The
// relative order of surviving spans is preserved.
func (e *Engine) Filter(spans []domain.EntitySpan, policy domain.RedactionPolicy) []domain.EntitySpan {
	if len(spans) == 0 {
		return nil
	}

	filtered := make([]domain.EntitySpan, 0, len(spans))
	for _, span := range spans {
		if !policy.IsEntityAllowed(span.Type) {
			continue
		}
		if !policy.MeetsConfidenceThreshold(span.Score) {
			continue
		}
		filtered = append(filtered, span)
	}
	return filtered
}
