package usecase_selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/suthee/kinarai/core/internal/eventbus"
	"github.com/suthee/kinarai/core/internal/model"
)

var (
	ErrEmptyPool      = errors.New("nothing to select")
	ErrBadResultCount = errors.New("result count must be at least 1")
	ErrSpinActive     = errors.New("selection already in progress")
	ErrInternal       = errors.New("internal error")
)

//go:generate mockery --name=Locker --output=./mocks/selection/locker --filename=locker.go
type Locker interface {
	TryLock(ctx context.Context, roomID model.RoomID, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, roomID model.RoomID) error
}

// Engine draws a uniform random result from a candidate pool and plays
// a purely cosmetic reveal over the event channel. The committed result
// never depends on what the reveal happens to be displaying.
type Engine struct {
	locker  Locker
	channel eventbus.Channel
	logger  *slog.Logger

	mu      sync.Mutex
	cancels map[model.RoomID]context.CancelFunc
}

func New(locker Locker, channel eventbus.Channel, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		locker:  locker,
		channel: channel,
		logger:  logger,
		cancels: make(map[model.RoomID]context.CancelFunc),
	}
}

// Start commits a draw for the room and kicks off the reveal. The
// result is computed eagerly, before any broadcast, and returned
// immediately. A second Start for the same room is rejected until the
// running reveal resolves.
func (e *Engine) Start(ctx context.Context, roomID model.RoomID, pool model.Pool, resultCount int, duration time.Duration) (model.SelectionResult, error) {
	if len(pool) == 0 {
		return model.SelectionResult{}, ErrEmptyPool
	}
	if resultCount < 1 {
		return model.SelectionResult{}, ErrBadResultCount
	}
	if resultCount > len(pool) {
		resultCount = len(pool)
	}

	ok, err := e.locker.TryLock(ctx, roomID, duration+10*time.Second)
	if err != nil {
		return model.SelectionResult{}, errors.Join(ErrInternal, err)
	}
	if !ok {
		return model.SelectionResult{}, ErrSpinActive
	}

	prepared := prepare(pool)
	shuffled := shuffle(prepared)
	result := model.SelectionResult{
		RoomID:  roomID,
		Items:   shuffled[:resultCount],
		DrawnAt: time.Now(),
	}

	revealCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[roomID] = cancel
	e.mu.Unlock()

	go e.reveal(revealCtx, prepared, result, duration)

	e.logger.Info("selection committed",
		"room_id", roomID,
		"pool_size", len(pool),
		"result_count", resultCount)
	return result, nil
}

// Cancel stops an in-flight reveal early. The committed draw itself is
// never cancelled; the result event is still delivered.
func (e *Engine) Cancel(roomID model.RoomID) {
	e.mu.Lock()
	cancel, ok := e.cancels[roomID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
}

func (e *Engine) reveal(ctx context.Context, pool model.Pool, result model.SelectionResult, duration time.Duration) {
	defer func() {
		e.mu.Lock()
		delete(e.cancels, result.RoomID)
		e.mu.Unlock()

		if err := e.locker.Unlock(context.Background(), result.RoomID); err != nil {
			e.logger.Error("failed to release spin lock", "error", err, "room_id", result.RoomID)
		}
	}()

	timeline := Timeline{Duration: duration}
	start := time.Now()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.publishResult(result)
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			if timeline.Done(elapsed) {
				e.publishResult(result)
				return
			}

			item := pool[timeline.Steps(elapsed)%len(pool)]
			_ = e.channel.Publish(result.RoomID, eventbus.Event{
				Type:   eventbus.EventSelectionTick,
				RoomID: result.RoomID,
				Payload: eventbus.TickPayload{
					Item:      item,
					ElapsedMS: elapsed.Milliseconds(),
				},
			})
		}
	}
}

func (e *Engine) publishResult(result model.SelectionResult) {
	if err := e.channel.Publish(result.RoomID, eventbus.Event{
		Type:    eventbus.EventSelectionResult,
		RoomID:  result.RoomID,
		Payload: result,
	}); err != nil {
		e.logger.Error("failed to broadcast result", "error", err, "room_id", result.RoomID)
	}
}

// prepare copies the pool and tags each candidate with a display color.
func prepare(pool model.Pool) model.Pool {
	prepared := make(model.Pool, len(pool))
	copy(prepared, pool)
	for i := range prepared {
		if prepared[i].Color == "" {
			prepared[i].Color = randomColor()
		}
	}
	return prepared
}

// Bright enough for dark text on top.
func randomColor() string {
	return fmt.Sprintf("hsl(%d, 70%%, 65%%)", rand.Intn(360))
}

// Fisher-Yates over a copy. Uniform as long as rand is.
func shuffle(pool model.Pool) model.Pool {
	shuffled := make(model.Pool, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
