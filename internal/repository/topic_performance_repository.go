package repository

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// TopicPerformanceRepository keeps per-user attempt/correct counters by topic.
type TopicPerformanceRepository struct {
	pool *pgxpool.Pool
}

// NewTopicPerformanceRepository creates a new TopicPerformanceRepository.
func NewTopicPerformanceRepository(pool *pgxpool.Pool) *TopicPerformanceRepository {
	return &TopicPerformanceRepository{pool: pool}
}

type topicKey struct {
	UserID    int
	PaperCode string
	UnitCode  string
	TopicName string
}

// TopicTally is the folded increment of one topic counter row.
type TopicTally struct {
	UserID    int
	PaperCode string
	UnitCode  string
	TopicName string
	Attempts  int
	Correct   int
}

// FoldTopicOutcomes collapses outcomes that hit the same counter row, since a
// single upsert statement may not touch a row twice. Output order is stable.
func FoldTopicOutcomes(outcomes []model.TopicOutcome) []TopicTally {
	index := make(map[topicKey]int, len(outcomes))
	var out []TopicTally
	for _, o := range outcomes {
		k := topicKey{o.UserID, o.PaperCode, o.UnitCode, o.TopicName}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, TopicTally{UserID: o.UserID, PaperCode: o.PaperCode, UnitCode: o.UnitCode, TopicName: o.TopicName})
		}
		out[i].Attempts++
		if o.IsCorrect {
			out[i].Correct++
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].UserID != out[b].UserID {
			return out[a].UserID < out[b].UserID
		}
		return out[a].TopicName < out[b].TopicName
	})
	return out
}

// InsertBatch adds the outcomes to the counters.
func (r *TopicPerformanceRepository) InsertBatch(ctx context.Context, outcomes []model.TopicOutcome) error {
	tallies := FoldTopicOutcomes(outcomes)
	n := len(tallies)
	if n == 0 {
		return nil
	}

	users := make([]int, n)
	papers := make([]string, n)
	units := make([]string, n)
	topics := make([]string, n)
	attempts := make([]int, n)
	corrects := make([]int, n)
	for i, t := range tallies {
		users[i] = t.UserID
		papers[i] = t.PaperCode
		units[i] = t.UnitCode
		topics[i] = t.TopicName
		attempts[i] = t.Attempts
		corrects[i] = t.Correct
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO topic_performance (user_id, paper_code, unit_code, topic_name, attempts, correct)
		SELECT * FROM UNNEST(
			$1::int[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::int[],
			$6::int[]
		)
		ON CONFLICT (user_id, paper_code, unit_code, topic_name) DO UPDATE
		SET attempts = topic_performance.attempts + EXCLUDED.attempts,
		    correct = topic_performance.correct + EXCLUDED.correct,
		    updated_at = NOW()
	`, users, papers, units, topics, attempts, corrects)
	return err
}

// Insert is the single-outcome fallback of InsertBatch.
func (r *TopicPerformanceRepository) Insert(ctx context.Context, o model.TopicOutcome) error {
	correct := 0
	if o.IsCorrect {
		correct = 1
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO topic_performance (user_id, paper_code, unit_code, topic_name, attempts, correct)
		 VALUES ($1, $2, $3, $4, 1, $5)
		 ON CONFLICT (user_id, paper_code, unit_code, topic_name) DO UPDATE
		 SET attempts = topic_performance.attempts + 1,
		     correct = topic_performance.correct + EXCLUDED.correct,
		     updated_at = NOW()`,
		o.UserID, o.PaperCode, o.UnitCode, o.TopicName, correct,
	)
	return err
}
