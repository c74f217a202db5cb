package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
)

// ErrUnknownQuestionType is returned when an answer is decoded for a tag
// the engine does not know.
var ErrUnknownQuestionType = errors.New("unknown question type")

// Answer is one of ChoiceAnswer, MultiChoiceAnswer, BlankAnswer,
// NumericAnswer, MatchingAnswer or ScenarioAnswer. A nil Answer means the
// question has not been answered.
type Answer interface {
	isAnswer()
}

// ChoiceAnswer selects a single option (MCQ_SINGLE and mcq).
type ChoiceAnswer struct {
	Index int
}

// MultiChoiceAnswer selects a set of options (MCQ_MULTI).
type MultiChoiceAnswer struct {
	Indices []int
}

// BlankAnswer fills gaps by blank index (FILL_IN_BLANK).
type BlankAnswer struct {
	Values map[int]string
}

// NumericAnswer is the raw text typed for a CALCULATION question.
type NumericAnswer struct {
	Value string
}

// MatchingAnswer maps left item index to right item index (MATCHING).
type MatchingAnswer struct {
	Pairs Pairs
}

// ScenarioAnswer maps sub-question index to the chosen value (SCENARIO_BASED).
type ScenarioAnswer struct {
	Responses map[int]Scalar
}

func (ChoiceAnswer) isAnswer()      {}
func (MultiChoiceAnswer) isAnswer() {}
func (BlankAnswer) isAnswer()       {}
func (NumericAnswer) isAnswer()     {}
func (MatchingAnswer) isAnswer()    {}
func (ScenarioAnswer) isAnswer()    {}

// CloneAnswer returns a copy of a that shares no slices or maps with it.
func CloneAnswer(a Answer) Answer {
	switch v := a.(type) {
	case MultiChoiceAnswer:
		return MultiChoiceAnswer{Indices: slices.Clone(v.Indices)}
	case BlankAnswer:
		return BlankAnswer{Values: maps.Clone(v.Values)}
	case MatchingAnswer:
		return MatchingAnswer{Pairs: maps.Clone(v.Pairs)}
	case ScenarioAnswer:
		return ScenarioAnswer{Responses: maps.Clone(v.Responses)}
	default:
		return a
	}
}

// The JSON form of every answer is the same shape the client sends.

func (a ChoiceAnswer) MarshalJSON() ([]byte, error)      { return json.Marshal(a.Index) }
func (a MultiChoiceAnswer) MarshalJSON() ([]byte, error) { return json.Marshal(a.Indices) }
func (a BlankAnswer) MarshalJSON() ([]byte, error)       { return json.Marshal(a.Values) }
func (a NumericAnswer) MarshalJSON() ([]byte, error)     { return json.Marshal(a.Value) }
func (a MatchingAnswer) MarshalJSON() ([]byte, error)    { return json.Marshal(map[int]int(a.Pairs)) }
func (a ScenarioAnswer) MarshalJSON() ([]byte, error)    { return json.Marshal(a.Responses) }

// DecodeAnswer builds the answer variant for a question type from client JSON.
// An empty payload or JSON null decodes to a nil Answer.
func DecodeAnswer(t QuestionType, raw json.RawMessage) (Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch t {
	case QuestionTypeMCQSingle, QuestionTypeLegacyMCQ:
		var idx int
		if err := json.Unmarshal(raw, &idx); err != nil {
			return nil, fmt.Errorf("decode choice answer: %w", err)
		}
		return ChoiceAnswer{Index: idx}, nil

	case QuestionTypeMCQMulti:
		var indices []int
		if err := json.Unmarshal(raw, &indices); err != nil {
			return nil, fmt.Errorf("decode multi choice answer: %w", err)
		}
		return MultiChoiceAnswer{Indices: dedupe(indices)}, nil

	case QuestionTypeFillInBlank:
		values, err := decodeIndexed[string](raw)
		if err != nil {
			return nil, fmt.Errorf("decode blank answer: %w", err)
		}
		return BlankAnswer{Values: values}, nil

	case QuestionTypeCalculation:
		var s Scalar
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode numeric answer: %w", err)
		}
		return NumericAnswer{Value: string(s)}, nil

	case QuestionTypeMatching:
		var p Pairs
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode matching answer: %w", err)
		}
		return MatchingAnswer{Pairs: p}, nil

	case QuestionTypeScenarioBased:
		responses, err := decodeIndexed[Scalar](raw)
		if err != nil {
			return nil, fmt.Errorf("decode scenario answer: %w", err)
		}
		return ScenarioAnswer{Responses: responses}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionType, t)
}

// decodeIndexed accepts either {"0": v, "1": v} or [v, v].
func decodeIndexed[T any](raw json.RawMessage) (map[int]T, error) {
	if len(raw) > 0 && raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		out := make(map[int]T, len(list))
		for i, v := range list {
			out[i] = v
		}
		return out, nil
	}
	var out map[int]T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func dedupe(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Scalar is a JSON string, number or boolean held in canonical text form,
// so that 2, 2.0 and "2" compare equal.
type Scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("empty scalar")
	}
	switch b[0] {
	case '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(str)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(strconv.FormatBool(v))
	case 'n':
		return nil
	case '{', '[':
		return fmt.Errorf("scalar expected, got %s", string(b))
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("invalid number %s: %w", string(b), err)
		}
		*s = Scalar(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// Pairs maps left index to right index. It decodes from an object
// ({"0": 2}) or from a list of {"left": 0, "right": 2} entries.
type Pairs map[int]int

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pairs) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []struct {
			Left  int `json:"left"`
			Right int `json:"right"`
		}
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		out := make(Pairs, len(list))
		for _, e := range list {
			out[e.Left] = e.Right
		}
		*p = out
		return nil
	}
	var m map[int]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*p = m
	return nil
}
