package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionTypeMockExam tags session log rows written by the mock exam engine.
const SessionTypeMockExam = "mock_exam"

// RawLogEntry is one question's outcome inside a SessionLog.
type RawLogEntry struct {
	QuestionID       uuid.UUID `json:"question_id"`
	UnitCode         string    `json:"unit_code"`
	Difficulty       string    `json:"difficulty"`
	Correct          bool      `json:"correct"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
}

// SessionLog is sent to the session persistence collaborator after submit.
type SessionLog struct {
	SessionID      uuid.UUID     `json:"session_id"`
	UserID         int           `json:"user_id"`
	SessionType    string        `json:"session_type"`
	PaperCode      string        `json:"paper_code"`
	LengthTier     LengthTier    `json:"length_tier"`
	TotalQuestions int           `json:"total_questions"`
	CorrectAnswers int           `json:"correct_answers"`
	AccuracyPct    float64       `json:"accuracy_pct"`
	Passed         bool          `json:"passed"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	SubmitReason   SubmitReason  `json:"submit_reason"`
	SubmittedAt    time.Time     `json:"submitted_at"`
	RawLog         []RawLogEntry `json:"raw_log"`
}

// ReviewUpdate feeds the spaced-repetition updater.
type ReviewUpdate struct {
	UserID     int       `json:"user_id"`
	QuestionID uuid.UUID `json:"question_id"`
	IsCorrect  bool      `json:"is_correct"`
}

// TopicOutcome feeds the topic performance tracker.
type TopicOutcome struct {
	UserID    int    `json:"user_id"`
	PaperCode string `json:"paper_code"`
	UnitCode  string `json:"unit_code"`
	TopicName string `json:"topic_name"`
	IsCorrect bool   `json:"is_correct"`
}

// BadgeTrigger asks the badge evaluator to re-check a user.
type BadgeTrigger struct {
	UserID      int       `json:"user_id"`
	TriggeredAt time.Time `json:"triggered_at"`
}
