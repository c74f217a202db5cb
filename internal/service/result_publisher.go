package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/engine"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// pusher is the subset of *redis.Client used to enqueue persistence work.
type pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ResultPublisher hands submitted exams to the persistence workers through
// Redis lists. It implements every engine sink.
type ResultPublisher struct {
	rdb pusher
	now func() time.Time
}

// NewResultPublisher creates a new ResultPublisher.
func NewResultPublisher(rdb pusher) *ResultPublisher {
	return &ResultPublisher{rdb: rdb, now: time.Now}
}

// ForUser returns the sink set for one learner's session.
func (p *ResultPublisher) ForUser(userID int) engine.Sinks {
	b := badgeSink{p: p, userID: userID}
	return engine.Sinks{Sessions: p, Reviews: p, Topics: p, Badges: b}
}

// LogSession enqueues the session log.
func (p *ResultPublisher) LogSession(ctx context.Context, log model.SessionLog) error {
	return push(ctx, p.rdb, config.WorkerKey.PersistSessionLogsQueue, log)
}

// UpdateReviews enqueues one item per question outcome.
func (p *ResultPublisher) UpdateReviews(ctx context.Context, updates []model.ReviewUpdate) error {
	return push(ctx, p.rdb, config.WorkerKey.PersistReviewUpdatesQueue, updates...)
}

// TrackTopics enqueues one item per topic outcome.
func (p *ResultPublisher) TrackTopics(ctx context.Context, outcomes []model.TopicOutcome) error {
	return push(ctx, p.rdb, config.WorkerKey.PersistTopicOutcomesQueue, outcomes...)
}

type badgeSink struct {
	p      *ResultPublisher
	userID int
}

func (b badgeSink) EvaluateBadges(ctx context.Context) error {
	trigger := model.BadgeTrigger{UserID: b.userID, TriggeredAt: b.p.now().UTC()}
	return push(ctx, b.p.rdb, config.WorkerKey.BadgeTriggersQueue, trigger)
}

func push[T any](ctx context.Context, rdb pusher, queue string, items ...T) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]interface{}, len(items))
	for i, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %s item: %w", queue, err)
		}
		values[i] = raw
	}
	if err := rdb.RPush(ctx, queue, values...).Err(); err != nil {
		return fmt.Errorf("push %s: %w", queue, err)
	}
	return nil
}
