package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// QuestionRepository is the question bank backed by PostgreSQL.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, paper_code, unit_code, question_type, prompt, options,
	correct_option_index, answer_text, metadata, explanation, difficulty, topic_name`

// FetchQuestions draws up to count active questions of a paper in random order.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, paperCode string, count int) ([]model.Question, error) {
	if count <= 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE paper_code = $1 AND is_active
		 ORDER BY random()
		 LIMIT $2`, paperCode, count,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]model.Question, 0, count)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountByPaper returns how many active questions a paper has.
func (r *QuestionRepository) CountByPaper(ctx context.Context, paperCode string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE paper_code = $1 AND is_active`, paperCode,
	).Scan(&n)
	return n, err
}

// CreateBatch inserts questions in one round trip and fills in their ids.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []model.Question) error {
	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		var metadata []byte
		if len(q.Metadata) > 0 {
			metadata = q.Metadata
		}
		batch.Queue(
			`INSERT INTO questions (paper_code, unit_code, question_type, prompt, options,
			 correct_option_index, answer_text, metadata, explanation, difficulty, topic_name)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			q.PaperCode, q.UnitCode, q.Type, q.Prompt, options,
			q.CorrectOptionIndex, q.AnswerText, metadata, q.Explanation, q.Difficulty, q.TopicName,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&q.ID)
		})
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func scanQuestion(row pgx.Row) (model.Question, error) {
	var (
		q        model.Question
		options  []byte
		metadata []byte
	)
	err := row.Scan(&q.ID, &q.PaperCode, &q.UnitCode, &q.Type, &q.Prompt, &options,
		&q.CorrectOptionIndex, &q.AnswerText, &metadata, &q.Explanation, &q.Difficulty, &q.TopicName)
	if err != nil {
		return q, fmt.Errorf("scan question: %w", err)
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return q, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
	}
	if len(metadata) > 0 {
		q.Metadata = json.RawMessage(metadata)
	}
	return q, nil
}
