package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// releaseLockScript deletes the key only if it still holds our token, so a
// lock that expired and was taken by another instance is left alone.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const redisLockReleaseTimeout = 5 * time.Second

// RedisSlotLocker shares the claim critical section between instances.
// The TTL bounds how long a crashed holder can block a tuple.
type RedisSlotLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisSlotLocker(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *RedisSlotLocker {
	return &RedisSlotLocker{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

func (l *RedisSlotLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	acquired, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.log.Warnf("Failed to acquire slot lock %s: %+v", key, err)
		return nil, false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !acquired {
		l.log.Debugf("Slot lock %s is held", key)
		return nil, false, nil
	}

	release := func() {
		// Release must survive a cancelled request context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), redisLockReleaseTimeout)
		defer cancel()
		if err := releaseLockScript.Run(releaseCtx, l.redisClient, []string{key}, token).Err(); err != nil {
			l.log.Warnf("Failed to release slot lock %s (expires in %v): %+v", key, l.ttl, err)
		}
	}
	return release, true, nil
}
