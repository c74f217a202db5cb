package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// DefaultPublishTimeout bounds the post-submission persistence calls.
const DefaultPublishTimeout = 10 * time.Second

// Options wires a Session to its collaborators.
type Options struct {
	UserID         int
	Bank           QuestionBank
	Entitlement    Entitlement
	Sinks          Sinks
	Clock          Clock
	Scheduler      Scheduler
	Log            zerolog.Logger
	PublishTimeout time.Duration
}

// EventType names the notifications a Session emits.
type EventType string

const (
	EventStarted   EventType = "started"
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
	EventReset     EventType = "reset"
)

// Event is delivered to listeners after the mutation that caused it.
type Event struct {
	Type                 EventType     `json:"type"`
	TimeRemainingSeconds int           `json:"time_remaining_seconds"`
	Result               *model.Result `json:"result,omitempty"`
}

// Session is the exam state machine:
//
//	Configuring -> InProgress -> Submitted <-> Reviewing
//	Submitted/Reviewing -> Configuring (Reset)
//
// Every operation holds the session lock for its whole duration, so ticks,
// keys and user actions never interleave.
type Session struct {
	mu   sync.Mutex
	opts Options
	log  zerolog.Logger

	status    model.SessionStatus
	id        uuid.UUID
	cfg       model.SessionConfig
	remaining *int

	questions []model.Question
	answers   []model.Answer
	sections  []model.Section
	nav       *Navigator
	timer     *Timer
	stopTick  func()

	result *model.Result
	review *Review

	listenerSeq int
	listeners   map[int]func(Event)
	pending     sync.WaitGroup
}

// NewSession returns a session in Configuring.
func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &Session{
		opts:      opts,
		log:       opts.Log.With().Str("component", "exam_session").Int("user_id", opts.UserID).Logger(),
		status:    model.SessionStatusConfiguring,
		listeners: make(map[int]func(Event)),
	}
}

// OnEvent registers a listener and returns a func that removes it.
func (s *Session) OnEvent(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listenerSeq++
	id := s.listenerSeq
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

// Status returns the current state.
func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ID returns the id of the running or finished attempt.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Start checks entitlement, fetches the batch and begins the countdown.
// On any error the session stays in Configuring.
func (s *Session) Start(ctx context.Context, cfg model.SessionConfig) error {
	s.mu.Lock()

	if s.status != model.SessionStatusConfiguring {
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.status)
	}

	decision, err := s.opts.Entitlement.Check(ctx, EntitlementRequest{Feature: FeatureMockExam, Tier: cfg.LengthTier})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrEntitlementCheck, err)
	}
	if !decision.Allowed {
		s.mu.Unlock()
		return ErrUpgradeRequired
	}

	questions, err := s.opts.Bank.FetchQuestions(ctx, cfg.PaperCode, cfg.QuestionCount)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrQuestionFetch, err)
	}
	if len(questions) == 0 {
		s.mu.Unlock()
		return ErrNoQuestions
	}
	if len(questions) > cfg.QuestionCount {
		questions = questions[:cfg.QuestionCount]
	}

	n := len(questions)
	if n < cfg.QuestionCount {
		s.log.Warn().
			Str("paper_code", cfg.PaperCode).
			Int("requested", cfg.QuestionCount).
			Int("received", n).
			Msg("Question bank returned a short batch, running shorter exam")
	}

	s.id = uuid.New()
	s.cfg = cfg
	s.remaining = decision.Remaining
	s.questions = questions
	s.answers = make([]model.Answer, n)
	if n == cfg.QuestionCount {
		s.sections = Partition(n)
	} else {
		s.sections = PartitionClipped(cfg.QuestionCount, n)
	}
	s.nav = NewNavigator(n)
	s.timer = NewTimer(s.opts.Clock, cfg.DurationSeconds, n)
	s.result = nil
	s.review = nil
	s.status = model.SessionStatusInProgress
	s.stopTick = s.opts.Scheduler.Every(TickInterval, s.Tick)

	s.log.Info().
		Str("session_id", s.id.String()).
		Str("paper_code", cfg.PaperCode).
		Str("length_tier", string(cfg.LengthTier)).
		Int("questions", n).
		Msg("Mock exam started")

	ev := Event{Type: EventStarted, TimeRemainingSeconds: s.timer.Remaining()}
	s.mu.Unlock()

	s.emit([]Event{ev})
	return nil
}

// Answer stores the answer for index. A nil answer clears it.
func (s *Session) Answer(index int, answer model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if !s.nav.InRange(index) {
		return ErrIndexOutOfRange
	}
	if !Matches(s.questions[index].Type, answer) {
		return ErrAnswerMismatch
	}
	s.answers[index] = model.CloneAnswer(answer)
	return nil
}

// AnswerJSON decodes raw for the question's type and stores it.
func (s *Session) AnswerJSON(index int, raw json.RawMessage) error {
	s.mu.Lock()
	if s.status != model.SessionStatusInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	if !s.nav.InRange(index) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	qType := s.questions[index].Type
	s.mu.Unlock()

	answer, err := model.DecodeAnswer(qType, raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAnswerMismatch, err)
	}
	return s.Answer(index, answer)
}

// ClearAnswer returns index to unanswered.
func (s *Session) ClearAnswer(index int) error {
	return s.Answer(index, nil)
}

// ToggleFlag flips the flag on index and returns the new state.
func (s *Session) ToggleFlag(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return false, err
	}
	return s.nav.ToggleFlag(index)
}

// NavigateTo closes the time interval of the current question and moves.
func (s *Session) NavigateTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	return s.navigateLocked(index)
}

func (s *Session) navigateLocked(index int) error {
	if !s.nav.InRange(index) {
		return ErrIndexOutOfRange
	}
	s.timer.Record(s.nav.Current())
	return s.nav.MoveTo(index)
}

// Next moves to the following question.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	return s.navigateLocked(s.nav.Current() + 1)
}

// Previous moves to the preceding question.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	return s.navigateLocked(s.nav.Current() - 1)
}

// Tick is the one-second countdown step. Reaching zero submits the exam.
// Ticks outside InProgress are ignored.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.status != model.SessionStatusInProgress {
		s.mu.Unlock()
		return
	}

	expired := s.timer.Tick()
	events := []Event{{Type: EventTick, TimeRemainingSeconds: s.timer.Remaining()}}
	if expired {
		s.log.Info().Str("session_id", s.id.String()).Msg("Time is up, auto-submitting")
		events = append(events, s.submitLocked(model.SubmitReasonTimeout))
	}
	s.mu.Unlock()

	s.emit(events)
}

// Submit closes the exam and returns its result. Only the first call from
// InProgress scores the attempt; later calls return the same result.
func (s *Session) Submit() (*model.Result, error) {
	s.mu.Lock()

	switch s.status {
	case model.SessionStatusInProgress:
		ev := s.submitLocked(model.SubmitReasonManual)
		res := s.result.Clone()
		s.mu.Unlock()
		s.emit([]Event{ev})
		return res, nil
	case model.SessionStatusSubmitted, model.SessionStatusReviewing:
		res := s.result.Clone()
		s.mu.Unlock()
		return res, nil
	default:
		s.mu.Unlock()
		return nil, ErrNotInProgress
	}
}

// submitLocked is the single guarded InProgress -> Submitted transition.
func (s *Session) submitLocked(reason model.SubmitReason) Event {
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
	s.timer.Record(s.nav.Current())

	res := Score(ScoreInput{
		Questions:        s.questions,
		Answers:          s.answers,
		Sections:         s.sections,
		TimePerQuestion:  s.timer.LedgerMillis(),
		DurationSeconds:  s.timer.Duration(),
		RemainingSeconds: s.timer.Remaining(),
		FlaggedCount:     s.nav.FlaggedCount(),
	})
	res.SessionID = s.id
	res.SubmitReason = reason
	res.SubmittedAt = s.opts.Clock.Now()

	s.result = res
	s.status = model.SessionStatusSubmitted

	s.log.Info().
		Str("session_id", s.id.String()).
		Str("reason", string(reason)).
		Int("correct", res.CorrectCount).
		Int("total", res.TotalQuestions).
		Float64("accuracy_pct", res.AccuracyPct).
		Bool("passed", res.Passed).
		Msg("Mock exam submitted and graded")

	s.pending.Add(1)
	go s.publish(s.cfg, s.questions, res.Clone())

	return Event{Type: EventSubmitted, TimeRemainingSeconds: s.timer.Remaining(), Result: res.Clone()}
}

// Result returns the frozen result, or nil before submit.
func (s *Session) Result() *model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.Clone()
}

// EnterReview switches to review mode over all or incorrect-only questions.
func (s *Session) EnterReview(incorrectOnly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case model.SessionStatusSubmitted:
		if s.review == nil {
			s.review = NewReview(s.questions, s.answers, s.nav.Flagged(), s.result, incorrectOnly)
		}
		s.review.SetIncorrectOnly(incorrectOnly)
		s.status = model.SessionStatusReviewing
		return nil
	case model.SessionStatusReviewing:
		s.review.SetIncorrectOnly(incorrectOnly)
		return nil
	default:
		return fmt.Errorf("%w: review from %s", ErrInvalidTransition, s.status)
	}
}

// ToggleIncorrectOnly flips the review sub-mode and rewinds to the first item.
func (s *Session) ToggleIncorrectOnly() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusReviewing {
		return false, ErrNotReviewing
	}
	return s.review.Toggle(), nil
}

// ReviewNext advances the review cursor.
func (s *Session) ReviewNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusReviewing {
		return ErrNotReviewing
	}
	if s.review.Perfect() {
		return ErrPerfectScore
	}
	s.review.Next()
	return nil
}

// ReviewPrevious moves the review cursor back.
func (s *Session) ReviewPrevious() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusReviewing {
		return ErrNotReviewing
	}
	if s.review.Perfect() {
		return ErrPerfectScore
	}
	s.review.Previous()
	return nil
}

// ReviewCurrent returns the item under the review cursor. It returns
// ErrPerfectScore when an incorrect-only review has nothing to show.
func (s *Session) ReviewCurrent() (ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusReviewing {
		return ReviewItem{}, ErrNotReviewing
	}
	return s.review.Current()
}

// ExitReview returns to Submitted and clears the incorrect-only sub-mode.
func (s *Session) ExitReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitReviewLocked()
}

func (s *Session) exitReviewLocked() error {
	if s.status != model.SessionStatusReviewing {
		return ErrNotReviewing
	}
	s.review.SetIncorrectOnly(false)
	s.status = model.SessionStatusSubmitted
	return nil
}

// HandleKey applies a keyboard input. Keys are only accepted while in
// progress (arrows navigate questions) or reviewing (arrows move the review
// cursor, Escape leaves review). Unbound keys are ignored.
func (s *Session) HandleKey(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case model.SessionStatusInProgress:
		var target int
		switch key {
		case KeyArrowLeft:
			target = s.nav.Current() - 1
		case KeyArrowRight:
			target = s.nav.Current() + 1
		default:
			return nil
		}
		if !s.nav.InRange(target) {
			return nil
		}
		return s.navigateLocked(target)

	case model.SessionStatusReviewing:
		switch key {
		case KeyArrowLeft:
			s.review.Previous()
		case KeyArrowRight:
			s.review.Next()
		case KeyEscape:
			return s.exitReviewLocked()
		}
		return nil

	default:
		return fmt.Errorf("%w: key input in %s", ErrInvalidTransition, s.status)
	}
}

// Reset discards the finished attempt and returns to Configuring.
func (s *Session) Reset() error {
	s.mu.Lock()

	switch s.status {
	case model.SessionStatusConfiguring:
		s.mu.Unlock()
		return nil
	case model.SessionStatusInProgress:
		s.mu.Unlock()
		return fmt.Errorf("%w: reset while in progress", ErrInvalidTransition)
	}

	s.status = model.SessionStatusConfiguring
	s.id = uuid.Nil
	s.cfg = model.SessionConfig{}
	s.remaining = nil
	s.questions = nil
	s.answers = nil
	s.sections = nil
	s.nav = nil
	s.timer = nil
	s.result = nil
	s.review = nil
	s.mu.Unlock()

	s.emit([]Event{{Type: EventReset}})
	return nil
}

// Wait blocks until every post-submission publication has finished.
func (s *Session) Wait() {
	s.pending.Wait()
}

func (s *Session) requireInProgress() error {
	if s.status != model.SessionStatusInProgress {
		return ErrNotInProgress
	}
	return nil
}
