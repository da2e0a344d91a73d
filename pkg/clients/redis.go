package clients

import (
	"context"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/cfg"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/jitter"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const pingAttempts = 3

type RedisClient struct {
	Client  *r.Client
	backoff jitter.Backoff
}

func NewRedisClient(cfg *cfg.RedisCfg) *RedisClient {
	client := r.NewClient(&r.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	return &RedisClient{
		Client:  client,
		backoff: jitter.NewBackoff(200*time.Millisecond, 2*time.Second),
	}
}

// Ping проверяет соединение, повторяя попытку, пока Redis поднимается вместе с сервисом.
func (c *RedisClient) Ping(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < pingAttempts; attempt++ {
		if err = c.Client.Ping(ctx).Err(); err == nil {
			return nil
		}
		if attempt < pingAttempts-1 && !c.backoff.Wait(ctx, attempt) {
			break
		}
	}

	return e.Wrap(whereami.WhereAmI(), err)
}

func (c *RedisClient) Close() error {
	return c.Client.Close()
}
