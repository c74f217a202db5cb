package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// ReviewOutcomeRepository appends per-question outcomes to the inbox read by
// the spaced-repetition scheduler.
type ReviewOutcomeRepository struct {
	pool *pgxpool.Pool
}

// NewReviewOutcomeRepository creates a new ReviewOutcomeRepository.
func NewReviewOutcomeRepository(pool *pgxpool.Pool) *ReviewOutcomeRepository {
	return &ReviewOutcomeRepository{pool: pool}
}

// InsertBatch appends the outcomes of one or more exams.
func (r *ReviewOutcomeRepository) InsertBatch(ctx context.Context, updates []model.ReviewUpdate) error {
	n := len(updates)
	if n == 0 {
		return nil
	}

	users := make([]int, n)
	questions := make([]uuid.UUID, n)
	corrects := make([]bool, n)
	for i, u := range updates {
		users[i] = u.UserID
		questions[i] = u.QuestionID
		corrects[i] = u.IsCorrect
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_outcomes (user_id, question_id, is_correct, recorded_at)
		SELECT u.user_id, u.question_id, u.is_correct, $4
		FROM UNNEST(
			$1::int[],
			$2::uuid[],
			$3::bool[]
		) AS u (user_id, question_id, is_correct)
	`, users, questions, corrects, time.Now())
	return err
}

// Insert is the single-row fallback of InsertBatch.
func (r *ReviewOutcomeRepository) Insert(ctx context.Context, u model.ReviewUpdate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO review_outcomes (user_id, question_id, is_correct, recorded_at)
		 VALUES ($1, $2, $3, NOW())`,
		u.UserID, u.QuestionID, u.IsCorrect,
	)
	return err
}
