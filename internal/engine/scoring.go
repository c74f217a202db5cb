package engine

import "github.com/stemsi/exstem-mockexam/internal/model"

// PassThresholdPct is the inclusive pass mark.
const PassThresholdPct = 50.0

// ScoreInput is everything the scoring pass reads. TimePerQuestion must
// already include the final interval of the active question.
type ScoreInput struct {
	Questions        []model.Question
	Answers          []model.Answer
	Sections         []model.Section
	TimePerQuestion  []int64
	DurationSeconds  int
	RemainingSeconds int
	FlaggedCount     int
}

// Score computes the result of a finished attempt.
func Score(in ScoreInput) *model.Result {
	total := len(in.Questions)
	outcomes := make([]bool, total)
	correct, unanswered := 0, 0

	for i, q := range in.Questions {
		a := answerAt(in.Answers, i)
		if a == nil {
			unanswered++
		}
		outcomes[i] = IsCorrect(q, a)
		if outcomes[i] {
			correct++
		}
	}

	accuracy := percent(correct, total)

	sections := make([]model.SectionResult, 0, len(in.Sections))
	for _, s := range in.Sections {
		sr := model.SectionResult{Section: s}
		for i := s.StartIndex; i <= s.EndIndex && i < total; i++ {
			sr.TotalCount++
			a := answerAt(in.Answers, i)
			if a != nil {
				sr.AnsweredCount++
			}
			if IsCorrect(in.Questions[i], a) {
				sr.CorrectCount++
			}
			if i < len(in.TimePerQuestion) {
				sr.TimeSpentMs += in.TimePerQuestion[i]
			}
		}
		sr.AccuracyPct = percent(sr.CorrectCount, sr.TotalCount)
		sections = append(sections, sr)
	}

	elapsed := in.DurationSeconds - in.RemainingSeconds
	if elapsed < 0 {
		elapsed = 0
	}

	return &model.Result{
		CorrectCount:        correct,
		TotalQuestions:      total,
		AccuracyPct:         accuracy,
		Passed:              accuracy >= PassThresholdPct,
		SectionResults:      sections,
		TotalElapsedSeconds: elapsed,
		TimePerQuestion:     append([]int64(nil), in.TimePerQuestion...),
		FlaggedCount:        in.FlaggedCount,
		UnansweredCount:     unanswered,
		Outcomes:            outcomes,
	}
}

func answerAt(answers []model.Answer, i int) model.Answer {
	if i < 0 || i >= len(answers) {
		return nil
	}
	return answers[i]
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
