// Package authz gates restoration requests through an embedded Rego policy.
//
// The guard runs before the restoration pipeline touches the vault: it sees
// the requested policy context and the caller's client metadata and decides
// whether the restore attempt may proceed at all. Per-token restoration
// permission is still enforced afterwards by the pipeline itself.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/rego"

	"github.com/veilai/veil-oss/pkg/domain"
)

// DefaultModule is the builtin authorization policy: restores are allowed
// unless the caller explicitly disabled them for its client class.
const DefaultModule = `package veil.authz

import rego.v1

default allow := false

allow if {
	not denied_client
}

denied_client if {
	input.client.restore_disabled == "true"
}
`

const defaultQuery = "data.veil.authz.allow"

// GuardOptions control Rego module loading for a Guard.
type GuardOptions struct {
	// Module is the Rego source evaluated per request. Empty selects
	// DefaultModule.
	Module string
	// Query is the decision path. Empty selects data.veil.authz.allow.
	Query string
}

// Guard evaluates restore authorization decisions using an embedded OPA
// prepared query. The query is compiled once at construction and is safe for
// concurrent evaluation.
type Guard struct {
	prepared rego.PreparedEvalQuery
	query    string
}

// NewGuard compiles the supplied Rego module and prepares the decision query.
func NewGuard(ctx context.Context, opts GuardOptions) (*Guard, error) {
	module := opts.Module
	if strings.TrimSpace(module) == "" {
		module = DefaultModule
	}
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		query = defaultQuery
	}

	prepared, err := rego.New(
		rego.Query(query),
		rego.Module("authz.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile authz module: %w", err)
	}

	return &Guard{prepared: prepared, query: query}, nil
}

// Authorize evaluates the policy for one restore attempt. A false or missing
// decision yields domain.ErrAuthzDenied.
func (g *Guard) Authorize(ctx context.Context, policyContext string, clientMetadata map[string]string) error {
	input := map[string]any{
		"context": policyContext,
		"client":  clientToMap(clientMetadata),
	}

	results, err := g.prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("authz decision: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.ErrAuthzDenied
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok || !allowed {
		return domain.ErrAuthzDenied
	}
	return nil
}

// IsDenial reports whether err represents an authorization denial rather than
// an evaluation failure.
func IsDenial(err error) bool {
	return errors.Is(err, domain.ErrAuthzDenied)
}

func clientToMap(metadata map[string]string) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
