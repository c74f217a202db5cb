package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuestionType is the tag that selects how an answer is checked.
type QuestionType string

const (
	QuestionTypeMCQSingle     QuestionType = "MCQ_SINGLE"
	QuestionTypeMCQMulti      QuestionType = "MCQ_MULTI"
	QuestionTypeFillInBlank   QuestionType = "FILL_IN_BLANK"
	QuestionTypeCalculation   QuestionType = "CALCULATION"
	QuestionTypeMatching      QuestionType = "MATCHING"
	QuestionTypeScenarioBased QuestionType = "SCENARIO_BASED"

	// QuestionTypeLegacyMCQ is the lowercase tag used by older imports.
	// It is checked exactly like MCQ_SINGLE.
	QuestionTypeLegacyMCQ QuestionType = "mcq"
)

// Question is a single bank item. It is never modified after it is fetched.
type Question struct {
	ID                 uuid.UUID       `json:"id"`
	PaperCode          string          `json:"paper_code"`
	UnitCode           *string         `json:"unit_code,omitempty"`
	Type               QuestionType    `json:"type"`
	Prompt             string          `json:"prompt"`
	Options            []string        `json:"options"`
	CorrectOptionIndex *int            `json:"correct_option_index,omitempty"`
	AnswerText         *string         `json:"answer_text,omitempty"`
	Metadata           json.RawMessage `json:"metadata,omitempty"`
	Explanation        *string         `json:"explanation,omitempty"`
	Difficulty         string          `json:"difficulty,omitempty"`
	TopicName          string          `json:"topic_name,omitempty"`
}

// Unit returns the unit code or an empty string.
func (q *Question) Unit() string {
	if q.UnitCode == nil {
		return ""
	}
	return *q.UnitCode
}

// Redacted returns a copy that is safe to show while the exam is running:
// the key fields are dropped and answer keys are stripped from metadata.
func (q Question) Redacted() Question {
	q.CorrectOptionIndex = nil
	q.AnswerText = nil
	q.Explanation = nil
	q.Metadata = scrubMetadata(q.Metadata)
	return q
}

// answerKeyFields are metadata keys that reveal the expected answer.
var answerKeyFields = map[string]bool{
	"correctAnswers": true,
	"correctAnswer":  true,
	"correctPairs":   true,
	"answer":         true,
	"tolerance":      true,
}

func scrubMetadata(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	out, err := json.Marshal(scrubValue(v))
	if err != nil {
		return nil
	}
	return out
}

func scrubValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if answerKeyFields[k] {
				delete(t, k)
				continue
			}
			t[k] = scrubValue(child)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = scrubValue(t[i])
		}
		return t
	default:
		return v
	}
}

// MultiChoiceMetadata is the metadata shape of MCQ_MULTI questions.
type MultiChoiceMetadata struct {
	CorrectAnswers []int `json:"correctAnswers"`
}

// Blank is one gap of a FILL_IN_BLANK question.
type Blank struct {
	Answer string `json:"answer"`
}

// FillInBlankMetadata is the metadata shape of FILL_IN_BLANK questions.
// Blank i is answered by BlankAnswer.Values[i].
type FillInBlankMetadata struct {
	Blanks []Blank `json:"blanks"`
}

// CalculationMetadata is the metadata shape of CALCULATION questions.
type CalculationMetadata struct {
	Tolerance *decimal.Decimal `json:"tolerance"`
}

// MatchingMetadata is the metadata shape of MATCHING questions.
type MatchingMetadata struct {
	LeftItems    []string `json:"leftItems,omitempty"`
	RightItems   []string `json:"rightItems,omitempty"`
	CorrectPairs Pairs    `json:"correctPairs"`
}

// SubQuestion is one part of a SCENARIO_BASED question.
type SubQuestion struct {
	Prompt        string   `json:"prompt,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *Scalar  `json:"correctAnswer"`
}

// ScenarioMetadata is the metadata shape of SCENARIO_BASED questions.
type ScenarioMetadata struct {
	Scenario     string        `json:"scenario,omitempty"`
	SubQuestions []SubQuestion `json:"subQuestions"`
}
