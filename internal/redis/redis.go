package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

var Rdb *redis.Client

func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

// Ping checks that the server is reachable.
func Ping(ctx context.Context) error {
	if Rdb == nil {
		return errors.New("redis not initialised")
	}
	return Rdb.Ping(ctx).Err()
}

func monthKey(year, month int) string {
	return fmt.Sprintf("iqamaah:month:%04d-%02d", year, month)
}

// MonthCache stores normalized months as JSON.
type MonthCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ iqamah.MonthCache = (*MonthCache)(nil)

func NewMonthCache(client *redis.Client, ttl time.Duration) *MonthCache {
	return &MonthCache{client: client, ttl: ttl}
}

func (c *MonthCache) GetMonth(ctx context.Context, year, month int) (model.MonthSchedule, bool, error) {
	raw, err := c.client.Get(ctx, monthKey(year, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.MonthSchedule{}, false, nil
	}
	if err != nil {
		return model.MonthSchedule{}, false, err
	}
	var m model.MonthSchedule
	if err := json.Unmarshal(raw, &m); err != nil {
		log.Warn().Err(err).Str("key", monthKey(year, month)).Msg("discarding corrupt cached month")
		return model.MonthSchedule{}, false, nil
	}
	return m, true, nil
}

func (c *MonthCache) SetMonth(ctx context.Context, m model.MonthSchedule) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, monthKey(m.Year, m.Month), raw, c.ttl).Err()
}

func (c *MonthCache) InvalidateMonth(ctx context.Context, year, month int) error {
	return c.client.Del(ctx, monthKey(year, month)).Err()
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard is an ack.Guard shared by every console instance using the same
// redis server.
type Guard struct {
	client *redis.Client
}

var _ ack.Guard = (*Guard)(nil)

func NewGuard(client *redis.Client) *Guard {
	return &Guard{client: client}
}

func (g *Guard) Acquire(ctx context.Context, kind string, ttl time.Duration) (func(), error) {
	key := "broadcast:lock:" + kind
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ack.ErrBusy
	}
	return func() {
		if err := releaseScript.Run(context.Background(), g.client, []string{key}, token).Err(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to release broadcast lock")
		}
	}, nil
}
