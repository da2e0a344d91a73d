package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/clients"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/DRSN-tech/tourism-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// matchModel — представление одного совпадения в кэше.
type matchModel struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// matchesModel хранит ключ вместе с результатом, чтобы отсеять коллизии при ручной правке кэша.
type matchesModel struct {
	Key     string       `json:"key"`
	Matches []matchModel `json:"matches"`
}

// SimilarityCacheRepo кэширует результаты визуального поиска в Redis.
type SimilarityCacheRepo struct {
	client *clients.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewSimilarityCacheRepo(client *clients.RedisClient, ttl time.Duration, logger logger.Logger) *SimilarityCacheRepo {
	return &SimilarityCacheRepo{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetMatches возвращает закэшированный результат. Промах — (nil, false, nil).
func (c *SimilarityCacheRepo) GetMatches(ctx context.Context, key string) ([]domain.Match, bool, error) {
	val, err := c.client.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, false, nil
		}
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := redisValueToBytes(val, key)
	if err != nil || data == nil {
		return nil, false, err
	}

	matches, err := unmarshalMatches(key, data)
	if err != nil {
		c.logger.Warnf("Redis unmarshal failed, dropping key %s: %v", key, err)
		if err := c.client.Client.Del(ctx, key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, false, nil
	}

	return matches, true, nil
}

// SetMatches сохраняет результат с TTL из конфигурации.
func (c *SimilarityCacheRepo) SetMatches(ctx context.Context, key string, matches []domain.Match) error {
	data, err := marshalMatches(key, matches)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func marshalMatches(key string, matches []domain.Match) ([]byte, error) {
	model := matchesModel{
		Key:     key,
		Matches: make([]matchModel, 0, len(matches)),
	}
	for _, m := range matches {
		model.Matches = append(model.Matches, matchModel{ID: m.ID, Score: m.Score})
	}

	return json.Marshal(model)
}

func unmarshalMatches(key string, data []byte) ([]domain.Match, error) {
	var model matchesModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	if model.Key != key {
		return nil, fmt.Errorf("cache key mismatch: want %s, got %s", key, model.Key)
	}

	matches := make([]domain.Match, 0, len(model.Matches))
	for _, m := range model.Matches {
		matches = append(matches, domain.Match{ID: m.ID, Score: m.Score})
	}

	return matches, nil
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
