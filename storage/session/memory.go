package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRevoker keeps revoked tokens in process memory. Expired entries are
// pruned on each Revoke.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time // {tokenID: expiry}
	now     func() time.Time
}

var _ Revoker = (*MemoryRevoker)(nil)

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
		}
	}
	r.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.revoked[tokenID]
	return ok && exp.After(r.now()), nil
}
