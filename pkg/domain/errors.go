package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrPolicyNotFound  = errors.New("policy context not found")
	ErrPolicyViolation = errors.New("restoration not permitted by policy")
	ErrMintCollision   = errors.New("minted token already exists")
	ErrMintExhausted   = errors.New("token mint retries exhausted")
	ErrAuthzDenied     = errors.New("restoration denied by authorization policy")
)

// PolicyViolationError reports a restore attempt on a token minted under a
// policy that forbids restoration. It aborts the whole restore call; no
// partial output is produced.
type PolicyViolationError struct {
	Token   string
	Context string
}

func (e *PolicyViolationError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("restoration of token %s is not permitted", e.Token)
	}
	return fmt.Sprintf("restoration of token %s is not permitted under policy context %q", e.Token, e.Context)
}

func (e *PolicyViolationError) Unwrap() error { return ErrPolicyViolation }
