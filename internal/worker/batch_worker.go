package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultBatchSize    = 50
	DefaultBatchTimeout = 2 * time.Second
	PollTimeout         = 1 * time.Second // Must be >= 1s to satisfy Redis
	connErrorBackoff    = 3 * time.Second
)

// Queue is the subset of *redis.Client the workers use.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPop(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Store persists queue items. Insert is the per-item fallback used when
// InsertBatch fails.
type Store[T any] interface {
	InsertBatch(ctx context.Context, items []T) error
	Insert(ctx context.Context, item T) error
}

// BatchWorker drains one Redis list into a Store, batching by size or age.
type BatchWorker[T any] struct {
	queueKey     string
	queue        Queue
	store        Store[T]
	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
	log          zerolog.Logger
}

// NewBatchWorker wires a queue key to a store. Non-positive sizes fall back
// to the defaults.
func NewBatchWorker[T any](name, queueKey string, queue Queue, store Store[T], batchSize int, batchTimeout time.Duration, log zerolog.Logger) *BatchWorker[T] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}
	return &BatchWorker[T]{
		queueKey:     queueKey,
		queue:        queue,
		store:        store,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		pollTimeout:  PollTimeout,
		log:          log.With().Str("component", name).Str("queue", queueKey).Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled, then flushes what it
// holds and drains the list. Call in a goroutine.
func (w *BatchWorker[T]) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]T, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested, flushing")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
		}

		item, err := w.queue.BLPop(ctx, w.pollTimeout, w.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, backing off")
			sleepCtx(ctx, connErrorBackoff)
			continue
		}
		if len(item) < 2 {
			continue
		}

		if p, ok := w.decode(item[1]); ok {
			batch = append(batch, p)
		}
	}
}

func (w *BatchWorker[T]) decode(raw string) (T, bool) {
	var p T
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		w.log.Error().Err(err).Str("payload", raw).Msg("Invalid JSON payload, dropped")
		return p, false
	}
	return p, true
}

// flushSafe writes the batch, falling back to one insert per item and
// requeueing the items that still fail.
func (w *BatchWorker[T]) flushSafe(ctx context.Context, batch []T) {
	if len(batch) == 0 {
		return
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Batch persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, using fallback")

	for _, p := range batch {
		if err := w.store.Insert(ctx, p); err != nil {
			w.log.Error().Err(err).Msg("Single insert failed, requeueing")
			w.requeue(ctx, p)
		}
	}
}

func (w *BatchWorker[T]) requeue(ctx context.Context, p T) {
	raw, err := json.Marshal(p)
	if err != nil {
		w.log.Error().Err(err).Msg("Encode for requeue failed, dropped")
		return
	}
	if err := w.queue.RPush(ctx, w.queueKey, raw).Err(); err != nil {
		w.log.Error().Err(err).Msg("Requeue failed, item lost")
	}
}

// drain empties the list in batches. It stops early if a batch cannot be
// written even item by item, leaving the rest for the next run.
func (w *BatchWorker[T]) drain(ctx context.Context) {
	drained := 0
	for {
		batch := make([]T, 0, w.batchSize)
		empty := false
		for len(batch) < w.batchSize {
			raw, err := w.queue.LPop(ctx, w.queueKey).Result()
			if err != nil {
				empty = true
				break
			}
			if p, ok := w.decode(raw); ok {
				batch = append(batch, p)
			}
		}

		if len(batch) > 0 {
			if err := w.store.InsertBatch(ctx, batch); err != nil {
				w.log.Error().Err(err).Int("count", len(batch)).Msg("Drain insert failed, requeueing")
				for _, p := range batch {
					w.requeue(ctx, p)
				}
				break
			}
			drained += len(batch)
		}
		if empty {
			break
		}
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
