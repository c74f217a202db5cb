package engine

import (
	"testing"

	"github.com/stemsi/exstem-mockexam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewOf(questions []model.Question, answers []model.Answer, flagged []int, incorrectOnly bool) *Review {
	res := Score(ScoreInput{Questions: questions, Answers: answers, Sections: Partition(len(questions))})
	return NewReview(questions, answers, flagged, res, incorrectOnly)
}

func TestReviewIncorrectOnly(t *testing.T) {
	questions := mcqQuestions(5)
	answers := answerAll(5, 1)
	answers[1] = model.ChoiceAnswer{Index: 0}
	answers[3] = nil

	r := reviewOf(questions, answers, []int{3}, true)
	require.Equal(t, 2, r.Len())

	item, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, 1, item.Index)
	assert.False(t, item.Correct)

	assert.True(t, r.Next())
	item, err = r.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, item.Index)
	assert.True(t, item.Flagged)
	assert.Nil(t, item.Answer)

	assert.False(t, r.Next(), "cursor stops at the last item")
	assert.Equal(t, 1, r.Position())
}

func TestReviewToggleRewinds(t *testing.T) {
	questions := mcqQuestions(5)
	answers := answerAll(5, 0)

	r := reviewOf(questions, answers, nil, false)
	r.Next()
	r.Next()
	assert.Equal(t, 2, r.Position())

	assert.True(t, r.Toggle())
	assert.Equal(t, 0, r.Position())
	assert.Equal(t, 5, r.Len())

	assert.False(t, r.Toggle())
	assert.Equal(t, 0, r.Position())
	assert.False(t, r.Previous())
}

func TestReviewPerfectScore(t *testing.T) {
	questions := mcqQuestions(3)
	r := reviewOf(questions, answerAll(3, 1), nil, true)

	assert.True(t, r.Perfect())
	_, err := r.Current()
	assert.ErrorIs(t, err, ErrPerfectScore)

	r.Toggle()
	assert.False(t, r.Perfect())
	item, err := r.Current()
	require.NoError(t, err)
	assert.True(t, item.Correct)
}

func TestReviewUsesFrozenOutcomes(t *testing.T) {
	questions := mcqQuestions(2)
	answers := answerAll(2, 1)
	res := &model.Result{Outcomes: []bool{false, true}, TimePerQuestion: []int64{1200, 800}}

	r := NewReview(questions, answers, nil, res, true)
	require.Equal(t, 1, r.Len())
	item, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, item.Index)
	assert.Equal(t, int64(1200), item.TimeSpentMs)
}
