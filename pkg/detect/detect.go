// Package detect provides the builtin regex-based entity detector.
//
// The redaction pipeline treats detectors as untrusted black boxes behind
// domain.Detector; this package is the self-contained default so the binary
// works without an external analyzer. Production deployments can swap in a
// dedicated PII service.
package detect

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule declares one detection rule: an entity type, the pattern locating it,
// and the base confidence reported for its matches.
type Rule struct {
	Type    string
	Pattern string
	Score   float64
}

// Config bundles the rule definitions for an Analyzer.
type Config struct {
	Rules []Rule
}

// DefaultConfig returns a baseline configuration covering common PII classes.
func DefaultConfig() Config {
	return Config{Rules: BuiltinRules()}
}

// NewAnalyzer compiles the configured rules into an Analyzer.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	compiled := make([]compiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		entityType := strings.TrimSpace(rule.Type)
		if entityType == "" {
			return nil, fmt.Errorf("detect: rule type is required")
		}
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			return nil, fmt.Errorf("detect: pattern is required for rule %s", entityType)
		}
		if rule.Score < 0 || rule.Score > 1 {
			return nil, fmt.Errorf("detect: score out of range for rule %s", entityType)
		}
		expr, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("detect: invalid pattern for rule %s: %w", entityType, err)
		}

		compiled = append(compiled, compiledRule{
			entityType: entityType,
			expr:       expr,
			score:      rule.Score,
		})
	}

	return &Analyzer{rules: compiled}, nil
}

// compiledRule is an internal representation of a Rule with a compiled regex.
type compiledRule struct {
	entityType string
	expr       *regexp.Regexp
	score      float64
}
