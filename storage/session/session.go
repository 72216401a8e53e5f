// Package session stores revoked session token IDs until their expiry.
package session

import (
	"context"
	"time"
)

// Revoker tracks logged out tokens.
type Revoker interface {
	// Revoke marks tokenID as revoked for ttl (the token's remaining lifetime).
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
