package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veilai/veil-oss/pkg/domain"
)

// maxMintAttempts bounds collision retries before Mint fails with
// domain.ErrMintExhausted.
const maxMintAttempts = 5

const defaultSweepInterval = time.Minute

// MemoryVault is an in-memory implementation of domain.TokenVault.
//
// Entries are immutable after Mint and deletion is idempotent, so concurrent
// readers and the audit purger never race on entry state. Expiry is enforced
// lazily on read and by a background sweeper so TTLs hold even without reads.
type MemoryVault struct {
	mu      sync.RWMutex
	entries map[string]domain.VaultEntry

	logger   *slog.Logger
	now      func() time.Time
	newToken func() (string, error)

	sweepStop chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once
}

// Option customises MemoryVault construction.
type Option func(*MemoryVault)

// WithLogger attaches a logger for sweep reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(v *MemoryVault) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithClock overrides the time source. Used in tests to force expiry.
func WithClock(now func() time.Time) Option {
	return func(v *MemoryVault) {
		if now != nil {
			v.now = now
		}
	}
}

// WithTokenSource overrides token generation. Used in tests to force
// collisions.
func WithTokenSource(newToken func() (string, error)) Option {
	return func(v *MemoryVault) {
		if newToken != nil {
			v.newToken = newToken
		}
	}
}

// NewMemoryVault creates an in-memory vault and starts its expiry sweeper.
// Callers own the lifecycle and must Close the vault on shutdown.
func NewMemoryVault(sweepInterval time.Duration, opts ...Option) *MemoryVault {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	v := &MemoryVault{
		entries:   make(map[string]domain.VaultEntry),
		logger:    slog.Default(),
		now:       time.Now,
		newToken:  NewToken,
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}

	go v.sweepLoop(sweepInterval)
	return v
}

// Mint stores value under a freshly generated token. Existing mappings are
// never overwritten: a generated token that is already present counts as a
// collision and is retried with a new token up to maxMintAttempts times.
func (v *MemoryVault) Mint(ctx context.Context, value string, meta domain.EntryMetadata, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		token, err := v.newToken()
		if err != nil {
			return "", err
		}

		v.mu.Lock()
		if _, exists := v.entries[token]; exists {
			v.mu.Unlock()
			v.logger.Warn("token collision on mint, retrying",
				"attempt", attempt+1, "error", domain.ErrMintCollision)
			continue
		}
		v.entries[token] = domain.VaultEntry{
			Token:    token,
			Value:    value,
			Metadata: meta,
			MintedAt: v.now(),
			TTL:      ttl,
		}
		v.mu.Unlock()
		return token, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %w",
		domain.ErrMintExhausted, maxMintAttempts, domain.ErrMintCollision)
}

// Get returns the original value for token if the entry exists and has not
// expired.
func (v *MemoryVault) Get(ctx context.Context, token string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	entry, ok := v.liveEntry(token)
	if !ok {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// GetMetadata returns the restoration metadata recorded at mint time.
func (v *MemoryVault) GetMetadata(ctx context.Context, token string) (domain.EntryMetadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.EntryMetadata{}, false, err
	}

	entry, ok := v.liveEntry(token)
	if !ok {
		return domain.EntryMetadata{}, false, nil
	}
	return entry.Metadata, true, nil
}

// Delete removes the entry for token. Absent tokens are a no-op.
func (v *MemoryVault) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	delete(v.entries, token)
	v.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, including not-yet-swept expired
// ones.
func (v *MemoryVault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Close stops the background sweeper. The vault remains readable afterwards.
func (v *MemoryVault) Close() error {
	v.closeOnce.Do(func() {
		close(v.sweepStop)
		<-v.sweepDone
	})
	return nil
}

// liveEntry fetches an entry and enforces lazy expiry: an expired entry is
// removed on the spot and reported as absent.
func (v *MemoryVault) liveEntry(token string) (domain.VaultEntry, bool) {
	v.mu.RLock()
	entry, ok := v.entries[token]
	v.mu.RUnlock()
	if !ok {
		return domain.VaultEntry{}, false
	}

	if entry.Expired(v.now()) {
		v.mu.Lock()
		// Re-check under the write lock; a concurrent delete already won.
		if current, still := v.entries[token]; still && current.Expired(v.now()) {
			delete(v.entries, token)
		}
		v.mu.Unlock()
		return domain.VaultEntry{}, false
	}
	return entry, true
}

func (v *MemoryVault) sweepLoop(interval time.Duration) {
	defer close(v.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-v.sweepStop:
			return
		case <-ticker.C:
			if removed := v.sweep(); removed > 0 {
				v.logger.Debug("vault sweep removed expired entries", "count", removed)
			}
		}
	}
}

func (v *MemoryVault) sweep() int {
	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()

	removed := 0
	for token, entry := range v.entries {
		if entry.Expired(now) {
			delete(v.entries, token)
			removed++
		}
	}
	return removed
}
