package infra_memory_spinlock

import (
	"context"
	"sync"
	"time"

	"github.com/suthee/kinarai/core/internal/model"
)

// Driver is the single-instance spin lock. TTL expiry mirrors the redis
// driver so an orphaned lock cannot wedge a room forever.
type Driver struct {
	mu    sync.Mutex
	until map[model.RoomID]time.Time
}

func New() *Driver {
	return &Driver{
		until: make(map[model.RoomID]time.Time),
	}
}

func (d *Driver) TryLock(ctx context.Context, roomID model.RoomID, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if deadline, held := d.until[roomID]; held && time.Now().Before(deadline) {
		return false, nil
	}
	d.until[roomID] = time.Now().Add(ttl)
	return true, nil
}

func (d *Driver) Unlock(ctx context.Context, roomID model.RoomID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.until, roomID)
	return nil
}
