// Package joblock hands out short-lived redis leases so that only one
// sweeper instance runs a given billing job at a time.
package joblock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease key only while the caller still holds
// it. Comparing the token first keeps a slow holder from deleting a
// lease that already expired and was re-acquired by someone else.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker acquires and releases per-job leases against a redis instance.
// A nil Locker is valid and means locking is disabled.
type Locker struct {
	client  *redis.Client
	release *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client:  client,
		release: redis.NewScript(releaseScript),
	}
}

// TryLock attempts to take the lease named key for ttl. It returns the
// holder token and whether the lease was acquired; losing the race to
// another holder is not an error.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	switch {
	case l == nil || l.client == nil:
		return "", false, errors.New("joblock: client not configured")
	case key == "":
		return "", false, errors.New("joblock: empty key")
	case ttl <= 0:
		return "", false, errors.New("joblock: ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release gives up the lease identified by key and token. Releasing a
// lease that expired or was never held is a no-op.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{key}, token).Err()
}
