package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LengthTier fixes the question count and duration of a mock exam.
type LengthTier string

const (
	LengthTierQuick LengthTier = "quick"
	LengthTierHalf  LengthTier = "half"
	LengthTierFull  LengthTier = "full"
)

// ErrUnknownLengthTier is returned for a tier outside quick|half|full.
var ErrUnknownLengthTier = errors.New("unknown length tier")

type tierSpec struct {
	questions int
	duration  int
}

var tierTable = map[LengthTier]tierSpec{
	LengthTierQuick: {questions: 15, duration: 2160},
	LengthTierHalf:  {questions: 25, duration: 3600},
	LengthTierFull:  {questions: 50, duration: 7200},
}

// Valid reports whether t is one of the known tiers.
func (t LengthTier) Valid() bool {
	_, ok := tierTable[t]
	return ok
}

// SessionConfig is a validated paper/length choice.
type SessionConfig struct {
	PaperCode       string     `json:"paper_code"`
	LengthTier      LengthTier `json:"length_tier"`
	QuestionCount   int        `json:"question_count"`
	DurationSeconds int        `json:"duration_seconds"`
}

// NewSessionConfig resolves the tier into its question count and duration.
func NewSessionConfig(paperCode string, tier LengthTier) (SessionConfig, error) {
	spec, ok := tierTable[tier]
	if !ok {
		return SessionConfig{}, fmt.Errorf("%w: %q", ErrUnknownLengthTier, tier)
	}
	if paperCode == "" {
		return SessionConfig{}, errors.New("paper code is required")
	}
	return SessionConfig{
		PaperCode:       paperCode,
		LengthTier:      tier,
		QuestionCount:   spec.questions,
		DurationSeconds: spec.duration,
	}, nil
}

// Section is an inclusive, contiguous range of question indices.
type Section struct {
	Name       string `json:"name"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// Len returns the number of questions in the section.
func (s Section) Len() int {
	return s.EndIndex - s.StartIndex + 1
}

// Contains reports whether index falls inside the section.
func (s Section) Contains(index int) bool {
	return index >= s.StartIndex && index <= s.EndIndex
}

// SessionStatus enumerates the engine states.
type SessionStatus string

const (
	SessionStatusConfiguring SessionStatus = "CONFIGURING"
	SessionStatusInProgress  SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted   SessionStatus = "SUBMITTED"
	SessionStatusReviewing   SessionStatus = "REVIEWING"
)

// SubmitReason records which path closed the exam.
type SubmitReason string

const (
	SubmitReasonManual  SubmitReason = "manual"
	SubmitReasonTimeout SubmitReason = "timeout"
)

// QuestionStatus is the single-value progress classification of a question.
type QuestionStatus string

const (
	QuestionStatusAnswered   QuestionStatus = "answered"
	QuestionStatusFlagged    QuestionStatus = "flagged"
	QuestionStatusUnanswered QuestionStatus = "unanswered"
)

// SectionStats is the progress of one section while the exam runs.
type SectionStats struct {
	Section       Section `json:"section"`
	AnsweredCount int     `json:"answered_count"`
	TotalCount    int     `json:"total_count"`
	FlaggedCount  int     `json:"flagged_count"`
}

// SectionResult is the scored outcome of one section.
type SectionResult struct {
	Section       Section `json:"section"`
	CorrectCount  int     `json:"correct_count"`
	TotalCount    int     `json:"total_count"`
	AnsweredCount int     `json:"answered_count"`
	AccuracyPct   float64 `json:"accuracy_pct"`
	TimeSpentMs   int64   `json:"time_spent_ms"`
}

// Result is the scored attempt. It is created once, on submit.
type Result struct {
	SessionID           uuid.UUID       `json:"session_id"`
	CorrectCount        int             `json:"correct_count"`
	TotalQuestions      int             `json:"total_questions"`
	AccuracyPct         float64         `json:"accuracy_pct"`
	Passed              bool            `json:"passed"`
	SectionResults      []SectionResult `json:"section_results"`
	TotalElapsedSeconds int             `json:"total_elapsed_seconds"`
	TimePerQuestion     []int64         `json:"time_per_question_ms"`
	FlaggedCount        int             `json:"flagged_count"`
	UnansweredCount     int             `json:"unanswered_count"`
	Outcomes            []bool          `json:"outcomes"`
	SubmitReason        SubmitReason    `json:"submit_reason"`
	SubmittedAt         time.Time       `json:"submitted_at"`
}

// Clone returns a deep copy so callers cannot mutate a frozen result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.SectionResults = append([]SectionResult(nil), r.SectionResults...)
	c.TimePerQuestion = append([]int64(nil), r.TimePerQuestion...)
	c.Outcomes = append([]bool(nil), r.Outcomes...)
	return &c
}
