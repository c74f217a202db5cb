package engine

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// IsCorrect decides whether answer is correct for q. It never panics and
// fails closed: nil answers, mismatched answer shapes, malformed metadata
// and unknown type tags are all incorrect.
func IsCorrect(q model.Question, answer model.Answer) bool {
	if answer == nil {
		return false
	}

	switch q.Type {
	case model.QuestionTypeMCQSingle, model.QuestionTypeLegacyMCQ:
		a, ok := answer.(model.ChoiceAnswer)
		return ok && checkChoice(q, a)
	case model.QuestionTypeMCQMulti:
		a, ok := answer.(model.MultiChoiceAnswer)
		return ok && checkMultiChoice(q, a)
	case model.QuestionTypeFillInBlank:
		a, ok := answer.(model.BlankAnswer)
		return ok && checkBlanks(q, a)
	case model.QuestionTypeCalculation:
		a, ok := answer.(model.NumericAnswer)
		return ok && checkCalculation(q, a)
	case model.QuestionTypeMatching:
		a, ok := answer.(model.MatchingAnswer)
		return ok && checkMatching(q, a)
	case model.QuestionTypeScenarioBased:
		a, ok := answer.(model.ScenarioAnswer)
		return ok && checkScenario(q, a)
	default:
		return false
	}
}

func checkChoice(q model.Question, a model.ChoiceAnswer) bool {
	return q.CorrectOptionIndex != nil && a.Index == *q.CorrectOptionIndex
}

func checkMultiChoice(q model.Question, a model.MultiChoiceAnswer) bool {
	var meta model.MultiChoiceMetadata
	if !decodeMetadata(q.Metadata, &meta) || len(meta.CorrectAnswers) == 0 {
		return false
	}
	want := indexSet(meta.CorrectAnswers)
	got := indexSet(a.Indices)
	if len(got) != len(want) {
		return false
	}
	for idx := range got {
		if _, ok := want[idx]; !ok {
			return false
		}
	}
	return true
}

func indexSet(indices []int) map[int]struct{} {
	set := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		set[idx] = struct{}{}
	}
	return set
}

func checkBlanks(q model.Question, a model.BlankAnswer) bool {
	var meta model.FillInBlankMetadata
	if !decodeMetadata(q.Metadata, &meta) || len(meta.Blanks) == 0 {
		return false
	}
	for i, blank := range meta.Blanks {
		got, ok := a.Values[i]
		if !ok {
			return false
		}
		if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(blank.Answer)) {
			return false
		}
	}
	return true
}

func checkCalculation(q model.Question, a model.NumericAnswer) bool {
	if q.AnswerText == nil {
		return false
	}
	got, ok := parseNumber(a.Value)
	if !ok {
		return false
	}
	want, ok := parseNumber(*q.AnswerText)
	if !ok {
		return false
	}

	tolerance := decimal.Zero
	if len(q.Metadata) > 0 {
		var meta model.CalculationMetadata
		if !decodeMetadata(q.Metadata, &meta) {
			return false
		}
		if meta.Tolerance != nil {
			tolerance = *meta.Tolerance
		}
	}
	return got.Sub(want).Abs().LessThanOrEqual(tolerance)
}

func checkMatching(q model.Question, a model.MatchingAnswer) bool {
	var meta model.MatchingMetadata
	if !decodeMetadata(q.Metadata, &meta) || len(meta.CorrectPairs) == 0 {
		return false
	}
	for left, right := range meta.CorrectPairs {
		got, ok := a.Pairs[left]
		if !ok || got != right {
			return false
		}
	}
	return true
}

func checkScenario(q model.Question, a model.ScenarioAnswer) bool {
	var meta model.ScenarioMetadata
	if !decodeMetadata(q.Metadata, &meta) || len(meta.SubQuestions) == 0 {
		return false
	}
	for i, sub := range meta.SubQuestions {
		if sub.CorrectAnswer == nil {
			return false
		}
		got, ok := a.Responses[i]
		if !ok || got != *sub.CorrectAnswer {
			return false
		}
	}
	return true
}

func decodeMetadata(raw json.RawMessage, dst interface{}) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// parseNumber accepts plain decimals plus thousands separators ("1,250.5").
// Values are exact, so a difference equal to the tolerance stays inside it.
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Matches reports whether the answer variant is the shape type t expects.
func Matches(t model.QuestionType, answer model.Answer) bool {
	switch answer.(type) {
	case nil:
		return true
	case model.ChoiceAnswer:
		return t == model.QuestionTypeMCQSingle || t == model.QuestionTypeLegacyMCQ
	case model.MultiChoiceAnswer:
		return t == model.QuestionTypeMCQMulti
	case model.BlankAnswer:
		return t == model.QuestionTypeFillInBlank
	case model.NumericAnswer:
		return t == model.QuestionTypeCalculation
	case model.MatchingAnswer:
		return t == model.QuestionTypeMatching
	case model.ScenarioAnswer:
		return t == model.QuestionTypeScenarioBased
	}
	return false
}
