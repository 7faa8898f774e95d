package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenStore keeps one outstanding password-reset digest per email.
// Key format: pwreset:<email>
type ResetTokenStore struct {
	client *redis.Client
}

// NewResetTokenStore creates a ResetTokenStore wrapping the given Redis client.
func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Save stores digest for email, replacing any earlier token. It expires after ttl.
func (s *ResetTokenStore) Save(ctx context.Context, email, digest string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKey(email), digest, ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the digest for email.
func (s *ResetTokenStore) Consume(ctx context.Context, email string) (string, bool, error) {
	digest, err := s.client.GetDel(ctx, resetKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("consume reset token: %w", err)
	}
	return digest, true, nil
}

func resetKey(email string) string {
	return "pwreset:" + email
}
