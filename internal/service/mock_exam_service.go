package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/engine"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

var (
	// ErrNoActiveSession means the user has never started a mock exam in
	// this process.
	ErrNoActiveSession = errors.New("no active mock exam")
	// ErrInvalidConfig wraps paper/tier validation failures.
	ErrInvalidConfig = errors.New("invalid mock exam configuration")
)

// User identifies the caller of a mock exam operation.
type User struct {
	ID   int
	Tier SubscriptionTier
}

// MockExamService owns one engine session per learner.
type MockExamService struct {
	bank           engine.QuestionBank
	entitlements   *EntitlementService
	publisher      *ResultPublisher
	clock          engine.Clock
	scheduler      engine.Scheduler
	publishTimeout time.Duration
	root           zerolog.Logger
	log            zerolog.Logger

	mu       sync.Mutex
	sessions map[int]*engine.Session
}

// MockExamOption overrides a MockExamService collaborator.
type MockExamOption func(*MockExamService)

// WithClock replaces the wall clock.
func WithClock(c engine.Clock) MockExamOption {
	return func(s *MockExamService) { s.clock = c }
}

// WithScheduler replaces the ticker scheduler.
func WithScheduler(sch engine.Scheduler) MockExamOption {
	return func(s *MockExamService) { s.scheduler = sch }
}

// WithPublishTimeout bounds the post-submission fan-out.
func WithPublishTimeout(d time.Duration) MockExamOption {
	return func(s *MockExamService) { s.publishTimeout = d }
}

// NewMockExamService creates a new MockExamService.
func NewMockExamService(
	bank engine.QuestionBank,
	entitlements *EntitlementService,
	publisher *ResultPublisher,
	log zerolog.Logger,
	opts ...MockExamOption,
) *MockExamService {
	s := &MockExamService{
		bank:         bank,
		entitlements: entitlements,
		publisher:    publisher,
		clock:        engine.SystemClock,
		scheduler:    engine.TickerScheduler,
		root:         log,
		log:          log.With().Str("component", "mock_exam_service").Logger(),
		sessions:     make(map[int]*engine.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sessionFor returns the user's session, creating it in Configuring.
func (s *MockExamService) sessionFor(user User) *engine.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[user.ID]; ok {
		return sess
	}
	sess := engine.NewSession(engine.Options{
		UserID:         user.ID,
		Bank:           s.bank,
		Entitlement:    s.entitlements.ForUser(user.ID, user.Tier),
		Sinks:          s.publisher.ForUser(user.ID),
		Clock:          s.clock,
		Scheduler:      s.scheduler,
		Log:            s.root,
		PublishTimeout: s.publishTimeout,
	})
	s.sessions[user.ID] = sess
	return sess
}

// Start validates the choice and begins a mock exam for user.
func (s *MockExamService) Start(ctx context.Context, user User, paperCode string, tier model.LengthTier) (engine.Snapshot, error) {
	cfg, err := model.NewSessionConfig(paperCode, tier)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	sess := s.sessionFor(user)
	if err := sess.Start(WithTier(ctx, user.Tier), cfg); err != nil {
		return engine.Snapshot{}, err
	}

	if err := s.entitlements.RecordUsage(ctx, user.ID, user.Tier); err != nil {
		s.log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record mock exam usage")
	}
	return sess.Snapshot(), nil
}

// Current returns the user's session.
func (s *MockExamService) Current(userID int) (*engine.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// Attach returns the user's session, creating an idle one so that live
// listeners can subscribe before the first start.
func (s *MockExamService) Attach(user User) *engine.Session {
	return s.sessionFor(user)
}

// Wait blocks until every session has finished publishing its results.
func (s *MockExamService) Wait() {
	s.mu.Lock()
	sessions := make([]*engine.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Wait()
	}
}
