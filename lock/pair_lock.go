package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"coincafe/service"

	"github.com/go-redis/redis/v8"
)

// ErrLockNotAcquired is returned when the pair lock could not be taken
// within the retry budget
var ErrLockNotAcquired = errors.New("failed to acquire transfer pair lock")

const (
	lockExpiration = 10 * time.Second
	retryInterval  = 50 * time.Millisecond
	maxRetries     = 100
)

// unlockScript deletes the key only if it still holds our token, so an
// expired lock taken over by another holder is never released by us
const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// PairLockFactory creates Redis-backed locks keyed by an unordered
// account pair, serializing the limit check and the balance mutation for
// concurrent transfers between the same two accounts.
type PairLockFactory struct {
	client *redis.Client
}

// NewPairLockFactory creates a pair lock factory over a Redis client
func NewPairLockFactory(client *redis.Client) *PairLockFactory {
	return &PairLockFactory{client: client}
}

// ForPair returns a lock for the unordered pair. Both transfer directions
// map to the same key.
func (f *PairLockFactory) ForPair(a, b int64) service.PairLock {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return &pairLock{
		client:     f.client,
		key:        fmt.Sprintf("transfer:lock:pair:%d:%d", lo, hi),
		token:      newToken(),
		expiration: lockExpiration,
	}
}

type pairLock struct {
	client     *redis.Client
	key        string
	token      string
	expiration time.Duration
}

// Lock blocks until the lock is acquired or the retry budget runs out.
// The key carries an expiration so a crashed holder cannot deadlock the
// pair.
func (l *pairLock) Lock(ctx context.Context) error {
	for i := 0; i < maxRetries; i++ {
		acquired, err := l.client.SetNX(ctx, l.key, l.token, l.expiration).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire pair lock %s: %w", l.key, err)
		}
		if acquired {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockNotAcquired
}

// Unlock releases the lock if we still hold it
func (l *pairLock) Unlock(ctx context.Context) error {
	if _, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.token).Result(); err != nil {
		return fmt.Errorf("failed to release pair lock %s: %w", l.key, err)
	}
	return nil
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
