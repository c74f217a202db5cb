package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// SessionLogRepository stores finished mock exams.
type SessionLogRepository struct {
	pool *pgxpool.Pool
}

// NewSessionLogRepository creates a new SessionLogRepository.
func NewSessionLogRepository(pool *pgxpool.Pool) *SessionLogRepository {
	return &SessionLogRepository{pool: pool}
}

// InsertBatch writes many logs in one statement. Logs already stored (same
// session id) are skipped so a redelivered queue item is harmless.
func (r *SessionLogRepository) InsertBatch(ctx context.Context, logs []model.SessionLog) error {
	n := len(logs)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, n)
	users := make([]int, n)
	types := make([]string, n)
	papers := make([]string, n)
	tiers := make([]string, n)
	totals := make([]int, n)
	corrects := make([]int, n)
	accuracies := make([]float64, n)
	passed := make([]bool, n)
	elapsed := make([]int, n)
	reasons := make([]string, n)
	submittedAts := make([]time.Time, n)
	rawLogs := make([][]byte, n)

	for i, l := range logs {
		raw, err := json.Marshal(l.RawLog)
		if err != nil {
			return fmt.Errorf("encode raw log of %s: %w", l.SessionID, err)
		}
		ids[i] = l.SessionID
		users[i] = l.UserID
		types[i] = l.SessionType
		papers[i] = l.PaperCode
		tiers[i] = string(l.LengthTier)
		totals[i] = l.TotalQuestions
		corrects[i] = l.CorrectAnswers
		accuracies[i] = l.AccuracyPct
		passed[i] = l.Passed
		elapsed[i] = l.ElapsedSeconds
		reasons[i] = string(l.SubmitReason)
		submittedAts[i] = l.SubmittedAt
		rawLogs[i] = raw
	}

	query := `
		INSERT INTO session_logs (
			id, user_id, session_type, paper_code, length_tier, total_questions,
			correct_answers, accuracy_pct, passed, elapsed_seconds, submit_reason,
			submitted_at, raw_log
		)
		SELECT * FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::int[],
			$7::int[],
			$8::float8[],
			$9::bool[],
			$10::int[],
			$11::text[],
			$12::timestamptz[],
			$13::jsonb[]
		)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, ids, users, types, papers, tiers, totals,
		corrects, accuracies, passed, elapsed, reasons, submittedAts, rawLogs)
	return err
}

// Insert is the single-row fallback of InsertBatch.
func (r *SessionLogRepository) Insert(ctx context.Context, l model.SessionLog) error {
	raw, err := json.Marshal(l.RawLog)
	if err != nil {
		return fmt.Errorf("encode raw log of %s: %w", l.SessionID, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO session_logs (
			id, user_id, session_type, paper_code, length_tier, total_questions,
			correct_answers, accuracy_pct, passed, elapsed_seconds, submit_reason,
			submitted_at, raw_log
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO NOTHING`,
		l.SessionID, l.UserID, l.SessionType, l.PaperCode, l.LengthTier, l.TotalQuestions,
		l.CorrectAnswers, l.AccuracyPct, l.Passed, l.ElapsedSeconds, l.SubmitReason,
		l.SubmittedAt, raw,
	)
	return err
}

// SessionSummary is one row of a user's mock exam history.
type SessionSummary struct {
	SessionID      uuid.UUID          `json:"session_id"`
	PaperCode      string             `json:"paper_code"`
	LengthTier     model.LengthTier   `json:"length_tier"`
	TotalQuestions int                `json:"total_questions"`
	CorrectAnswers int                `json:"correct_answers"`
	AccuracyPct    float64            `json:"accuracy_pct"`
	Passed         bool               `json:"passed"`
	SubmitReason   model.SubmitReason `json:"submit_reason"`
	SubmittedAt    time.Time          `json:"submitted_at"`
}

// ListByUser returns a page of a user's mock exams, newest first, and the
// total number stored.
func (r *SessionLogRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]SessionSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_logs WHERE user_id = $1 AND session_type = $2`,
		userID, model.SessionTypeMockExam,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, paper_code, length_tier, total_questions, correct_answers,
		        accuracy_pct, passed, submit_reason, submitted_at
		 FROM session_logs
		 WHERE user_id = $1 AND session_type = $2
		 ORDER BY submitted_at DESC
		 LIMIT $3 OFFSET $4`, userID, model.SessionTypeMockExam, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.SessionID, &s.PaperCode, &s.LengthTier, &s.TotalQuestions, &s.CorrectAnswers,
			&s.AccuracyPct, &s.Passed, &s.SubmitReason, &s.SubmittedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}
