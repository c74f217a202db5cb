package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// Starter is anything with a blocking Start loop.
type Starter interface {
	Start(ctx context.Context)
}

// NewSessionLogWorker persists finished mock exam logs.
func NewSessionLogWorker(store Store[model.SessionLog], q Queue, cfg *config.Config, log zerolog.Logger) *BatchWorker[model.SessionLog] {
	return NewBatchWorker("session_log_worker", config.WorkerKey.PersistSessionLogsQueue, q, store,
		cfg.WorkerBatchSize, cfg.WorkerFlushInterval, log)
}

// NewReviewOutcomeWorker persists spaced-repetition outcomes.
func NewReviewOutcomeWorker(store Store[model.ReviewUpdate], q Queue, cfg *config.Config, log zerolog.Logger) *BatchWorker[model.ReviewUpdate] {
	return NewBatchWorker("review_outcome_worker", config.WorkerKey.PersistReviewUpdatesQueue, q, store,
		cfg.WorkerBatchSize, cfg.WorkerFlushInterval, log)
}

// NewTopicPerformanceWorker folds topic outcomes into the per-topic counters.
func NewTopicPerformanceWorker(store Store[model.TopicOutcome], q Queue, cfg *config.Config, log zerolog.Logger) *BatchWorker[model.TopicOutcome] {
	return NewBatchWorker("topic_performance_worker", config.WorkerKey.PersistTopicOutcomesQueue, q, store,
		cfg.WorkerBatchSize, cfg.WorkerFlushInterval, log)
}

// NewBadgeTriggerWorker records badge re-evaluation requests.
func NewBadgeTriggerWorker(store Store[model.BadgeTrigger], q Queue, cfg *config.Config, log zerolog.Logger) *BatchWorker[model.BadgeTrigger] {
	return NewBatchWorker("badge_trigger_worker", config.WorkerKey.BadgeTriggersQueue, q, store,
		cfg.WorkerBatchSize, cfg.WorkerFlushInterval, log)
}

// Run starts every worker in its own goroutine. The returned WaitGroup is
// done once all of them have flushed and returned after ctx is cancelled.
func Run(ctx context.Context, workers ...Starter) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w Starter) {
			defer wg.Done()
			w.Start(ctx)
		}(w)
	}
	return &wg
}
