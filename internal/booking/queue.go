package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const parkedKey = "booking:parked"

// ErrCorruptParked marks a queue entry that could not be decoded. The entry
// has already been removed from the queue.
var ErrCorruptParked = errors.New("corrupt parked booking")

// Parked is a booking the sink could not persist, kept for a later replay.
type Parked struct {
	Data     Data      `json:"data"`
	Reason   string    `json:"reason"`
	ParkedAt time.Time `json:"parked_at"`
}

// Queue holds parked bookings, oldest first.
type Queue interface {
	Park(ctx context.Context, p Parked) error
	Pop(ctx context.Context) (*Parked, error)
	Requeue(ctx context.Context, p Parked) error
	Len(ctx context.Context) (int64, error)
}

type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: parkedKey}
}

func (q *RedisQueue) Park(ctx context.Context, p Parked) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal parked booking: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("park booking: %w", err)
	}
	return nil
}

// Pop returns the oldest parked booking, or nil when the queue is empty.
func (q *RedisQueue) Pop(ctx context.Context) (*Parked, error) {
	data, err := q.client.RPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop parked booking: %w", err)
	}
	var p Parked
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v: %q", ErrCorruptParked, err, data)
	}
	return &p, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Requeue puts p back at the head so it is retried first.
func (q *RedisQueue) Requeue(ctx context.Context, p Parked) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key, data).Err()
}

// Replayer is what the drain loop hands parked bookings to.
type Replayer interface {
	Replay(ctx context.Context, p Parked) (string, error)
}

// Drain replays parked bookings until the queue is empty or one fails. A
// failed booking goes back to the front of the queue; an undecodable one is
// logged and dropped.
func Drain(ctx context.Context, q Queue, r Replayer, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var replayed int
	for {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}
		p, err := q.Pop(ctx)
		if errors.Is(err, ErrCorruptParked) {
			logger.Error("dropping undecodable parked booking", zap.Error(err))
			continue
		}
		if err != nil {
			return replayed, err
		}
		if p == nil {
			return replayed, nil
		}
		id, err := r.Replay(ctx, *p)
		if err != nil {
			if qerr := q.Requeue(ctx, *p); qerr != nil {
				logger.Error("failed to requeue parked booking", zap.Error(qerr))
			}
			return replayed, fmt.Errorf("replay parked booking: %w", err)
		}
		logger.Info("replayed parked booking", zap.String("booking_id", id))
		replayed++
	}
}
