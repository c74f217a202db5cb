package engine

import "github.com/stemsi/exstem-mockexam/internal/model"

// Key is a keyboard input accepted while in progress or reviewing.
type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyEscape     Key = "Escape"
)

// ReviewItem is one question as shown in review.
type ReviewItem struct {
	Index       int            `json:"index"`
	Question    model.Question `json:"question"`
	Answer      model.Answer   `json:"answer"`
	Correct     bool           `json:"correct"`
	Flagged     bool           `json:"flagged"`
	TimeSpentMs int64          `json:"time_spent_ms"`
}

// Review walks the frozen attempt, either in full or incorrect answers only.
type Review struct {
	all           []ReviewItem
	incorrect     []ReviewItem
	incorrectOnly bool
	pos           int
}

// NewReview builds both working lists from the frozen result. Correctness
// comes from result.Outcomes, never from a fresh validation pass.
func NewReview(questions []model.Question, answers []model.Answer, flagged []int, result *model.Result, incorrectOnly bool) *Review {
	flags := make(map[int]bool, len(flagged))
	for _, idx := range flagged {
		flags[idx] = true
	}

	r := &Review{incorrectOnly: incorrectOnly}
	for i, q := range questions {
		item := ReviewItem{
			Index:    i,
			Question: q,
			Answer:   answerAt(answers, i),
			Flagged:  flags[i],
		}
		if i < len(result.Outcomes) {
			item.Correct = result.Outcomes[i]
		}
		if i < len(result.TimePerQuestion) {
			item.TimeSpentMs = result.TimePerQuestion[i]
		}
		r.all = append(r.all, item)
		if !item.Correct {
			r.incorrect = append(r.incorrect, item)
		}
	}
	return r
}

func (r *Review) list() []ReviewItem {
	if r.incorrectOnly {
		return r.incorrect
	}
	return r.all
}

// IncorrectOnly reports the current sub-mode.
func (r *Review) IncorrectOnly() bool { return r.incorrectOnly }

// SetIncorrectOnly switches sub-mode and always rewinds to the first item.
func (r *Review) SetIncorrectOnly(on bool) {
	r.incorrectOnly = on
	r.pos = 0
}

// Toggle flips the sub-mode and returns the new value.
func (r *Review) Toggle() bool {
	r.SetIncorrectOnly(!r.incorrectOnly)
	return r.incorrectOnly
}

// Perfect is the terminal state of an incorrect-only review with nothing in it.
func (r *Review) Perfect() bool {
	return r.incorrectOnly && len(r.incorrect) == 0
}

// Len is the size of the working list.
func (r *Review) Len() int { return len(r.list()) }

// Position is the cursor into the working list.
func (r *Review) Position() int { return r.pos }

// Current returns the item under the cursor.
func (r *Review) Current() (ReviewItem, error) {
	if r.Perfect() {
		return ReviewItem{}, ErrPerfectScore
	}
	l := r.list()
	if len(l) == 0 {
		return ReviewItem{}, ErrIndexOutOfRange
	}
	return l[r.pos], nil
}

// Next advances the cursor; it stops at the last item.
func (r *Review) Next() bool {
	if r.pos+1 >= r.Len() {
		return false
	}
	r.pos++
	return true
}

// Previous moves the cursor back; it stops at the first item.
func (r *Review) Previous() bool {
	if r.pos == 0 {
		return false
	}
	r.pos--
	return true
}
