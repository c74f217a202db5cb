package engine

import (
	"sort"

	"github.com/stemsi/exstem-mockexam/internal/model"
)

// Navigator owns the current position and the flag set.
type Navigator struct {
	total   int
	current int
	flagged map[int]struct{}
}

// NewNavigator positions at question 0 with no flags.
func NewNavigator(total int) *Navigator {
	return &Navigator{total: total, flagged: make(map[int]struct{})}
}

// Current returns the active question index.
func (n *Navigator) Current() int { return n.current }

// InRange reports whether index addresses a question.
func (n *Navigator) InRange(index int) bool {
	return index >= 0 && index < n.total
}

// MoveTo sets the current index.
func (n *Navigator) MoveTo(index int) error {
	if !n.InRange(index) {
		return ErrIndexOutOfRange
	}
	n.current = index
	return nil
}

// ToggleFlag flips the flag on index and returns the new state.
func (n *Navigator) ToggleFlag(index int) (bool, error) {
	if !n.InRange(index) {
		return false, ErrIndexOutOfRange
	}
	if _, ok := n.flagged[index]; ok {
		delete(n.flagged, index)
		return false, nil
	}
	n.flagged[index] = struct{}{}
	return true, nil
}

// IsFlagged reports membership in the flag set.
func (n *Navigator) IsFlagged(index int) bool {
	_, ok := n.flagged[index]
	return ok
}

// FlaggedCount is the size of the flag set.
func (n *Navigator) FlaggedCount() int { return len(n.flagged) }

// Flagged returns the flagged indices in ascending order.
func (n *Navigator) Flagged() []int {
	out := make([]int, 0, len(n.flagged))
	for idx := range n.flagged {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// StatusOf classifies index for progress counts. Answered wins over flagged;
// the flag itself stays visible through IsFlagged.
func (n *Navigator) StatusOf(index int, answers []model.Answer) model.QuestionStatus {
	if index >= 0 && index < len(answers) && answers[index] != nil {
		return model.QuestionStatusAnswered
	}
	if n.IsFlagged(index) {
		return model.QuestionStatusFlagged
	}
	return model.QuestionStatusUnanswered
}

// SectionStats scans the section's range.
func (n *Navigator) SectionStats(section model.Section, answers []model.Answer) model.SectionStats {
	stats := model.SectionStats{Section: section}
	for i := section.StartIndex; i <= section.EndIndex && i < len(answers); i++ {
		stats.TotalCount++
		if answers[i] != nil {
			stats.AnsweredCount++
		}
		if n.IsFlagged(i) {
			stats.FlaggedCount++
		}
	}
	return stats
}
