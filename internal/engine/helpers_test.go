package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// manualScheduler never ticks on its own; tests call Fire.
type manualScheduler struct {
	mu        sync.Mutex
	fn        func()
	started   int
	cancelled int
}

func (m *manualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	m.fn = fn
	m.started++
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.cancelled++
			m.fn = nil
			m.mu.Unlock()
		})
	}
}

// Fire delivers n ticks while the subscription is live.
func (m *manualScheduler) Fire(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		fn := m.fn
		m.mu.Unlock()
		if fn == nil {
			return
		}
		fn()
	}
}

func (m *manualScheduler) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn != nil
}

type fakeBank struct {
	questions []model.Question
	err       error
	calls     int
}

func (b *fakeBank) FetchQuestions(_ context.Context, _ string, count int) ([]model.Question, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	if len(b.questions) > count {
		return b.questions[:count], nil
	}
	return b.questions, nil
}

type fakeEntitlement struct {
	decision EntitlementDecision
	err      error
	requests []EntitlementRequest
}

func (e *fakeEntitlement) Check(_ context.Context, req EntitlementRequest) (EntitlementDecision, error) {
	e.requests = append(e.requests, req)
	return e.decision, e.err
}

func allow() *fakeEntitlement {
	return &fakeEntitlement{decision: EntitlementDecision{Allowed: true}}
}

type recordingSinks struct {
	mu       sync.Mutex
	logs     []model.SessionLog
	reviews  [][]model.ReviewUpdate
	topics   [][]model.TopicOutcome
	badges   int
	failWith error
}

func (r *recordingSinks) LogSession(_ context.Context, l model.SessionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	return r.failWith
}

func (r *recordingSinks) UpdateReviews(_ context.Context, u []model.ReviewUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, u)
	return r.failWith
}

func (r *recordingSinks) TrackTopics(_ context.Context, t []model.TopicOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, t)
	return r.failWith
}

func (r *recordingSinks) EvaluateBadges(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.badges++
	return r.failWith
}

func (r *recordingSinks) sinks() Sinks {
	return Sinks{Sessions: r, Reviews: r, Topics: r, Badges: r}
}

var errBoom = errors.New("boom")

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// mcqQuestions returns n MCQ_SINGLE questions whose correct option is 1.
func mcqQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:                 uuid.New(),
			PaperCode:          "FA",
			UnitCode:           strPtr("FA1"),
			Type:               model.QuestionTypeMCQSingle,
			Prompt:             "Which option is right?",
			Options:            []string{"A", "B", "C", "D"},
			CorrectOptionIndex: intPtr(1),
			Explanation:        strPtr("B is right."),
			Difficulty:         "medium",
			TopicName:          "Double entry",
		}
	}
	return qs
}

type harness struct {
	clock     *manualClock
	scheduler *manualScheduler
	bank      *fakeBank
	ent       *fakeEntitlement
	sinks     *recordingSinks
	session   *Session
}

func newHarness(questions []model.Question) *harness {
	h := &harness{
		clock:     newManualClock(),
		scheduler: &manualScheduler{},
		bank:      &fakeBank{questions: questions},
		ent:       allow(),
		sinks:     &recordingSinks{},
	}
	h.session = NewSession(Options{
		UserID:      7,
		Bank:        h.bank,
		Entitlement: h.ent,
		Sinks:       h.sinks.sinks(),
		Clock:       h.clock,
		Scheduler:   h.scheduler,
		Log:         zerolog.Nop(),
	})
	return h
}

func quickConfig() model.SessionConfig {
	cfg, err := model.NewSessionConfig("FA", model.LengthTierQuick)
	if err != nil {
		panic(err)
	}
	return cfg
}

func fullConfig() model.SessionConfig {
	cfg, err := model.NewSessionConfig("FA", model.LengthTierFull)
	if err != nil {
		panic(err)
	}
	return cfg
}
