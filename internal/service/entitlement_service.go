package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/engine"
)

// usageCounter is the subset of *redis.Client used for daily counters.
type usageCounter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
}

// EntitlementService meters mock exams: pro users are unlimited, free users
// get a daily allowance counted per UTC day in Redis.
type EntitlementService struct {
	rdb       usageCounter
	freeDaily int
	now       func() time.Time
	log       zerolog.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(rdb usageCounter, cfg *config.Config, log zerolog.Logger) *EntitlementService {
	return &EntitlementService{
		rdb:       rdb,
		freeDaily: cfg.FreeDailyMockExams,
		now:       time.Now,
		log:       log.With().Str("component", "entitlement").Logger(),
	}
}

// Check decides whether userID on tier may start another mock exam today.
// Remaining is the allowance left after this start.
func (s *EntitlementService) Check(ctx context.Context, userID int, tier SubscriptionTier, req engine.EntitlementRequest) (engine.EntitlementDecision, error) {
	if req.Feature != engine.FeatureMockExam {
		return engine.EntitlementDecision{}, fmt.Errorf("unknown feature %q", req.Feature)
	}
	if tier == TierPro {
		return engine.EntitlementDecision{Allowed: true}, nil
	}

	used, err := s.usedToday(ctx, userID)
	if err != nil {
		return engine.EntitlementDecision{}, err
	}

	left := s.freeDaily - used
	if left <= 0 {
		zero := 0
		s.log.Info().Int("user_id", userID).Int("used", used).Msg("Free mock exam allowance exhausted")
		return engine.EntitlementDecision{Allowed: false, Remaining: &zero}, nil
	}
	after := left - 1
	return engine.EntitlementDecision{Allowed: true, Remaining: &after}, nil
}

func (s *EntitlementService) usedToday(ctx context.Context, userID int) (int, error) {
	key := config.CacheKey.MockExamUsageKey(userID, s.now())
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse usage %q: %w", raw, err)
	}
	return n, nil
}

// RecordUsage counts one started exam against today's allowance. Pro users
// are not counted.
func (s *EntitlementService) RecordUsage(ctx context.Context, userID int, tier SubscriptionTier) error {
	if tier == TierPro {
		return nil
	}
	now := s.now().UTC()
	key := config.CacheKey.MockExamUsageKey(userID, now)
	if err := s.rdb.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	// Keep the counter a little past midnight so late reads still see it.
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	if err := s.rdb.ExpireAt(ctx, key, midnight.Add(time.Hour)).Err(); err != nil {
		return fmt.Errorf("expire usage: %w", err)
	}
	return nil
}

// ForUser binds the service to one learner so it satisfies engine.Entitlement.
// The tier is read from the request context on every check, falling back to
// the tier given here.
func (s *EntitlementService) ForUser(userID int, fallback SubscriptionTier) engine.Entitlement {
	return userEntitlement{svc: s, userID: userID, fallback: fallback}
}

type userEntitlement struct {
	svc      *EntitlementService
	userID   int
	fallback SubscriptionTier
}

func (u userEntitlement) Check(ctx context.Context, req engine.EntitlementRequest) (engine.EntitlementDecision, error) {
	tier, ok := tierFromContext(ctx)
	if !ok {
		tier = u.fallback
	}
	return u.svc.Check(ctx, u.userID, tier, req)
}

type tierKey struct{}

// WithTier attaches the caller's subscription tier to ctx.
func WithTier(ctx context.Context, tier SubscriptionTier) context.Context {
	return context.WithValue(ctx, tierKey{}, tier)
}

func tierFromContext(ctx context.Context) (SubscriptionTier, bool) {
	t, ok := ctx.Value(tierKey{}).(SubscriptionTier)
	return t, ok && t != ""
}
