package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// BadgeTriggerRepository records that a user's badges need re-evaluation.
// One pending row per user is enough; the evaluator clears it.
type BadgeTriggerRepository struct {
	pool *pgxpool.Pool
}

// NewBadgeTriggerRepository creates a new BadgeTriggerRepository.
func NewBadgeTriggerRepository(pool *pgxpool.Pool) *BadgeTriggerRepository {
	return &BadgeTriggerRepository{pool: pool}
}

// InsertBatch upserts the pending trigger of each user.
func (r *BadgeTriggerRepository) InsertBatch(ctx context.Context, triggers []model.BadgeTrigger) error {
	latest := make(map[int]time.Time, len(triggers))
	for _, t := range triggers {
		if cur, ok := latest[t.UserID]; !ok || t.TriggeredAt.After(cur) {
			latest[t.UserID] = t.TriggeredAt
		}
	}
	if len(latest) == 0 {
		return nil
	}

	users := make([]int, 0, len(latest))
	ats := make([]time.Time, 0, len(latest))
	for u, at := range latest {
		users = append(users, u)
		ats = append(ats, at)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO badge_evaluation_requests (user_id, requested_at)
		SELECT * FROM UNNEST($1::int[], $2::timestamptz[])
		ON CONFLICT (user_id) DO UPDATE
		SET requested_at = GREATEST(badge_evaluation_requests.requested_at, EXCLUDED.requested_at)
	`, users, ats)
	return err
}

// Insert is the single-row fallback of InsertBatch.
func (r *BadgeTriggerRepository) Insert(ctx context.Context, t model.BadgeTrigger) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO badge_evaluation_requests (user_id, requested_at)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET requested_at = GREATEST(badge_evaluation_requests.requested_at, EXCLUDED.requested_at)`,
		t.UserID, t.TriggeredAt,
	)
	return err
}
