package tokenstore

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyBlacklisted is returned by Add when the jti is already revoked
var ErrAlreadyBlacklisted = errors.New("token already blacklisted")

// Blacklist is the revocation set for refresh tokens, keyed by jti.
// Entries only need to live until the token would have expired anyway.
type Blacklist interface {
	// Add revokes jti. It is an atomic set-if-absent: exactly one of several
	// concurrent callers succeeds, the others get ErrAlreadyBlacklisted.
	Add(ctx context.Context, jti string, userID uint, expiresAt time.Time) error
	// Contains reports whether jti has been revoked
	Contains(ctx context.Context, jti string) (bool, error)
}

// Purger is implemented by stores that need expired entries removed out of band
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
