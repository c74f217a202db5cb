package engine

import (
	"context"
	"sync"
	"time"

	"github.com/stemsi/exstem-mockexam/internal/model"
)

// FeatureMockExam is the entitlement feature name checked before start.
const FeatureMockExam = "mock-exam"

// QuestionBank supplies the question batch for a paper. It may return fewer
// than count questions.
type QuestionBank interface {
	FetchQuestions(ctx context.Context, paperCode string, count int) ([]model.Question, error)
}

// EntitlementRequest asks whether the user may start a mock exam of a tier.
type EntitlementRequest struct {
	Feature string
	Tier    model.LengthTier
}

// EntitlementDecision is the entitlement answer. Remaining is nil when the
// feature is unmetered.
type EntitlementDecision struct {
	Allowed   bool
	Remaining *int
}

// Entitlement is injected so the engine never reads subscription state itself.
type Entitlement interface {
	Check(ctx context.Context, req EntitlementRequest) (EntitlementDecision, error)
}

// SessionLogger persists the session log.
type SessionLogger interface {
	LogSession(ctx context.Context, log model.SessionLog) error
}

// ReviewUpdater feeds per-question outcomes to spaced repetition.
type ReviewUpdater interface {
	UpdateReviews(ctx context.Context, updates []model.ReviewUpdate) error
}

// TopicTracker records per-topic outcomes.
type TopicTracker interface {
	TrackTopics(ctx context.Context, outcomes []model.TopicOutcome) error
}

// BadgeEvaluator is poked once per submitted exam.
type BadgeEvaluator interface {
	EvaluateBadges(ctx context.Context) error
}

// Sinks groups the post-submission collaborators. Nil members are skipped.
type Sinks struct {
	Sessions SessionLogger
	Reviews  ReviewUpdater
	Topics   TopicTracker
	Badges   BadgeEvaluator
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Scheduler runs fn every interval until the returned cancel func is called.
// Cancel must be safe to call more than once.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type tickerScheduler struct{}

func (tickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// TickerScheduler drives callbacks from a time.Ticker goroutine.
var TickerScheduler Scheduler = tickerScheduler{}
