package infra_redis_spinlock

import (
	"context"
	"time"

	"github.com/go-redis/redis"

	"github.com/suthee/kinarai/core/internal/model"
)

// Driver guards "one active selection per room" across service
// instances with a SETNX lock. The TTL covers a crashed holder.
type Driver struct {
	client *redis.Client
	prefix string
}

func New(
	client *redis.Client,
	prefix string,
) *Driver {
	return &Driver{
		client: client,
		prefix: prefix,
	}
}

func (d *Driver) TryLock(ctx context.Context, roomID model.RoomID, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(d.key(roomID), 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (d *Driver) Unlock(ctx context.Context, roomID model.RoomID) error {
	return d.client.Del(d.key(roomID)).Err()
}

func (d *Driver) key(roomID model.RoomID) string {
	return d.prefix + ":" + string(roomID)
}
