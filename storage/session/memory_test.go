package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewMemoryRevoker()
	r.now = func() time.Time { return now }

	revoked, err := r.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "tok-1", time.Hour))
	require.NoError(t, r.Revoke(ctx, "tok-expired", 0))

	revoked, _ = r.IsRevoked(ctx, "tok-1")
	assert.True(t, revoked)
	revoked, _ = r.IsRevoked(ctx, "tok-expired")
	assert.False(t, revoked, "non positive ttl is a no-op")

	// past expiry
	now = now.Add(2 * time.Hour)
	revoked, _ = r.IsRevoked(ctx, "tok-1")
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "tok-2", time.Minute))
	assert.Len(t, r.revoked, 1, "expired entries are pruned")
}
