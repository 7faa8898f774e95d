package ports

import (
	"context"
	"time"
)

// ResetTokenStore keeps the digest of the outstanding password-reset token per email.
type ResetTokenStore interface {
	// Save replaces any outstanding token for email; it expires after ttl.
	Save(ctx context.Context, email, digest string, ttl time.Duration) error
	// Consume returns the stored digest and removes it. ok is false when
	// no token is outstanding or it has expired.
	Consume(ctx context.Context, email string) (digest string, ok bool, err error)
}
