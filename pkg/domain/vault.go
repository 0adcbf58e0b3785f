package domain

import (
	"context"
	"time"
)

// EntryMetadata is the restoration metadata attached to a vault entry at mint
// time. Restoration permission is fixed here and enforced on every later
// restore regardless of any caller-supplied policy.
type EntryMetadata struct {
	PolicyContext      string
	RestorationAllowed bool
}

// VaultEntry is one structured vault record. Entries are created exactly once
// by the redaction pipeline and never mutated afterwards; they disappear
// either through TTL expiry or an explicit audit purge.
type VaultEntry struct {
	Token    string
	Value    string
	Metadata EntryMetadata
	MintedAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry's TTL has elapsed at the given instant.
// A zero TTL means the entry never expires.
func (e VaultEntry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.MintedAt.Add(e.TTL))
}

// TokenVault manages ephemeral storage of original sensitive values keyed by
// opaque redaction tokens.
//
// Implementations must never overwrite an existing mapping from Mint, must
// treat Delete as idempotent, and must guarantee that a value returned by Get
// belongs to an unexpired entry.
type TokenVault interface {
	// Mint stores value under a freshly generated token and returns it.
	// Token generation collisions are retried a bounded number of times
	// before failing with ErrMintExhausted.
	Mint(ctx context.Context, value string, meta EntryMetadata, ttl time.Duration) (string, error)

	// Get returns the original value for token. The boolean is false when
	// the token is absent, expired, or purged.
	Get(ctx context.Context, token string) (string, bool, error)

	// GetMetadata returns the restoration metadata recorded at mint time.
	GetMetadata(ctx context.Context, token string) (EntryMetadata, bool, error)

	// Delete removes the entry for token. Deleting an absent token is not
	// an error.
	Delete(ctx context.Context, token string) error
}
