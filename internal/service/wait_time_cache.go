package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medlink-booking/internal/domain/entity"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const RedisWaitTimeKeyPrefix = "waittime:"

// WaitTimeCache stores computed estimates. A miss returns (nil, nil).
type WaitTimeCache interface {
	Get(ctx context.Context, doctorID uuid.UUID, date string) (*entity.WaitTimeEstimate, error)
	Set(ctx context.Context, estimate *entity.WaitTimeEstimate) error
}

type redisWaitTimeCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisWaitTimeCache(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) WaitTimeCache {
	return &redisWaitTimeCache{redisClient: redisClient, log: log, ttl: ttl}
}

func waitTimeKey(doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("%s%s:%s", RedisWaitTimeKeyPrefix, doctorID, date)
}

func (c *redisWaitTimeCache) Get(ctx context.Context, doctorID uuid.UUID, date string) (*entity.WaitTimeEstimate, error) {
	raw, err := c.redisClient.Get(ctx, waitTimeKey(doctorID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var estimate entity.WaitTimeEstimate
	if err := json.Unmarshal(raw, &estimate); err != nil {
		c.log.Warnf("Dropping unreadable wait-time cache entry for doctor %s: %+v", doctorID, err)
		return nil, nil
	}
	return &estimate, nil
}

func (c *redisWaitTimeCache) Set(ctx context.Context, estimate *entity.WaitTimeEstimate) error {
	raw, err := json.Marshal(estimate)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, waitTimeKey(estimate.DoctorID, estimate.Date), raw, c.ttl).Err()
}
