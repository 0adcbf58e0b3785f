package domain

// RedactionPolicy bundles the redaction and restoration rules applied under a
// named context.
type RedactionPolicy struct {
	Context string `json:"context" yaml:"context"`
	// EnabledEntities lists entity types that should be redacted. An empty
	// list allows every type not explicitly disabled.
	EnabledEntities []string `json:"enabled_entities" yaml:"enabled_entities"`
	// DisabledEntities always wins over EnabledEntities.
	DisabledEntities       []string `json:"disabled_entities" yaml:"disabled_entities"`
	RestorationAllowed     bool     `json:"restoration_allowed" yaml:"restoration_allowed"`
	MinConfidenceThreshold float64  `json:"min_confidence_threshold" yaml:"min_confidence_threshold"`
	Description            string   `json:"description" yaml:"description"`
}

// IsEntityAllowed reports whether spans of the given type should be redacted
// under this policy. The disabled list takes precedence over the enabled list.
func (p RedactionPolicy) IsEntityAllowed(entityType string) bool {
	for _, disabled := range p.DisabledEntities {
		if disabled == entityType {
			return false
		}
	}
	if len(p.EnabledEntities) == 0 {
		return true
	}
	for _, enabled := range p.EnabledEntities {
		if enabled == entityType {
			return true
		}
	}
	return false
}

// MeetsConfidenceThreshold reports whether a detector score passes the
// policy's minimum confidence gate.
func (p RedactionPolicy) MeetsConfidenceThreshold(score float64) bool {
	return score >= p.MinConfidenceThreshold
}

// PolicyOverride carries request-level partial overrides of a base policy.
// Nil fields inherit from the base; present fields replace it wholesale.
type PolicyOverride struct {
	Context                *string  `json:"context,omitempty" yaml:"context,omitempty"`
	EnabledEntities        []string `json:"enabled_entities,omitempty" yaml:"enabled_entities,omitempty"`
	DisabledEntities       []string `json:"disabled_entities,omitempty" yaml:"disabled_entities,omitempty"`
	RestorationAllowed     *bool    `json:"restoration_allowed,omitempty" yaml:"restoration_allowed,omitempty"`
	MinConfidenceThreshold *float64 `json:"min_confidence_threshold,omitempty" yaml:"min_confidence_threshold,omitempty"`
}
