// Package redis implements the mirror lock shared by several deployer processes.
package redis

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/google/uuid"
	"github.com/maroux/heroku-deployer/internal/app"
	goredis "github.com/redis/go-redis/v9"
	"log/slog"
	"sync"
	"time"
)

const (
	// KeyPrefix is the prefix of the lock keys.
	KeyPrefix = "heroku-deployer:lock:"
	// DefaultTTL is the lock expiry; the holder keeps extending it while it is alive.
	DefaultTTL = 30 * time.Second
	// DefaultRetry is the polling interval of a busy lock.
	DefaultRetry = 250 * time.Millisecond
)

var (
	releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)
	refreshScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)
)

// NewClient connects to the server and checks the connection.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WrapContext(err, errors.Context{
			Path:   "redis.NewClient.Ping",
			Params: errors.Params{"addr": addr},
		})
	}
	return client, nil
}

// NewLock creates a new instance of the distributed locker.
func NewLock(client goredis.UniversalClient, logger *slog.Logger) app.Locker {
	return Lock{client: client, logger: logger, ttl: DefaultTTL, retry: DefaultRetry}
}

// Lock is a Redis SET NX lock with a token-checked release.
type Lock struct {
	client goredis.UniversalClient
	logger *slog.Logger
	ttl    time.Duration
	retry  time.Duration
}

// Key returns the Redis key of the resource.
func Key(resource string) string {
	return KeyPrefix + resource
}

// Lock blocks until the lock is acquired or the context is done.
func (l Lock) Lock(ctx context.Context, resource string) (func(), error) {
	key := Key(resource)
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.WrapContext(err, errors.Context{
				Path:   "redis.Lock.Lock.SetNX",
				Params: errors.Params{"key": key},
			})
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.WrapContext(ctx.Err(), errors.Context{
				Path:   "redis.Lock.Lock.wait",
				Params: errors.Params{"key": key},
			})
		case <-time.After(l.retry):
		}
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.refresh(key, token, stop)
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("lock release failed", "key", key, "error", err)
			}
		})
	}, nil
}

func (l Lock) refresh(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			res, err := refreshScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.logger.Warn("lock refresh failed", "key", key, "error", err)
				continue
			}
			if res == 0 {
				l.logger.Error("lock is lost", "key", key)
				return
			}
		}
	}
}
