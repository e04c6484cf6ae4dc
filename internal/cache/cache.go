package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codetier/taskhub/internal/domain/task"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// TaskCache keeps each user's task list in redis for a short TTL.
// Cache failures are swallowed: a miss or an unreachable redis only
// means the repo gets hit.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(cfg Config, ttl time.Duration) *TaskCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &TaskCache{rdb: rdb, ttl: ttl}
}

func listKey(userID string) string {
	return "tasks:" + userID
}

func (c *TaskCache) GetList(ctx context.Context, userID string) ([]task.Task, bool) {
	raw, err := c.rdb.Get(ctx, listKey(userID)).Bytes()

	if err != nil {
		return nil, false
	}

	var out []task.Task

	if json.Unmarshal(raw, &out) != nil {
		return nil, false
	}

	return out, true
}

func (c *TaskCache) SetList(ctx context.Context, userID string, tasks []task.Task) {
	raw, err := json.Marshal(tasks)

	if err != nil {
		return
	}

	_ = c.rdb.Set(ctx, listKey(userID), raw, c.ttl).Err()
}

// Invalidate drops the cached list after any mutation for the owner.
func (c *TaskCache) Invalidate(ctx context.Context, userID string) {
	_ = c.rdb.Del(ctx, listKey(userID)).Err()
}

func (c *TaskCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *TaskCache) Close() error {
	return c.rdb.Close()
}
