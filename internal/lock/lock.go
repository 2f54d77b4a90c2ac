// Package lock provides short exclusive critical sections keyed by an
// identifier, such as one payment's confirm-and-allocate sequence.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rentledger/payment-engine/internal/logger"
)

// ErrNotAcquired is returned when a lock could not be taken before the
// context or the wait budget ran out.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker grants exclusive sections. The returned release func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Local is an in-process Locker backed by one mutex per key.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}, nil
}

func (l *Local) unref(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// releaseScript deletes the key only when it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis.
type Redis struct {
	client    *redis.Client
	prefix    string
	ttl       time.Duration
	retryWait time.Duration
	maxWait   time.Duration
	logger    *slog.Logger
}

// NewRedis returns a Locker whose keys expire after ttl so a crashed holder
// cannot block a payment forever.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, log *slog.Logger) *Redis {
	return &Redis{
		client:    client,
		prefix:    prefix,
		ttl:       ttl,
		retryWait: 25 * time.Millisecond,
		maxWait:   ttl,
		logger:    logger.OrDiscard(log),
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	fullKey := r.prefix + key
	deadline := time.Now().Add(r.maxWait)

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, fullKey)
		}

		select {
		case <-time.After(r.retryWait):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, fullKey, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.release(ctx, fullKey, token)
		})
	}, nil
}

// release deletes fullKey if token still owns it. A failure leaves the key
// held until its TTL expires.
func (r *Redis) release(ctx context.Context, fullKey, token string) {
	// Release must survive a cancelled request context.
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err(); err != nil {
		r.logger.WarnContext(ctx, "lock release failed",
			slog.String("key", fullKey),
			slog.Duration("expires_in", r.ttl),
			slog.Any("error", err),
		)
	}
}
