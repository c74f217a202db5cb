package engine

import (
	"errors"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// Snapshot is a read-only view of a session, safe to serialise.
type Snapshot struct {
	SessionID            *uuid.UUID             `json:"session_id,omitempty"`
	Status               model.SessionStatus    `json:"status"`
	Config               *model.SessionConfig   `json:"config,omitempty"`
	CurrentIndex         int                    `json:"current_index"`
	TimeRemainingSeconds int                    `json:"time_remaining_seconds"`
	Questions            []model.Question       `json:"questions,omitempty"`
	Answers              []model.Answer         `json:"answers,omitempty"`
	Flagged              []int                  `json:"flagged,omitempty"`
	Statuses             []model.QuestionStatus `json:"statuses,omitempty"`
	Sections             []model.SectionStats   `json:"sections,omitempty"`
	EntitlementRemaining *int                   `json:"entitlement_remaining,omitempty"`
	Result               *model.Result          `json:"result,omitempty"`
	Review               *ReviewView            `json:"review,omitempty"`
}

// ReviewView is the review cursor as shown to the client.
type ReviewView struct {
	IncorrectOnly bool        `json:"incorrect_only"`
	Position      int         `json:"position"`
	Total         int         `json:"total"`
	PerfectScore  bool        `json:"perfect_score"`
	Item          *ReviewItem `json:"item,omitempty"`
}

// Snapshot captures the current state. Answer keys are redacted while the
// exam is in progress.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Status: s.status}
	if s.status == model.SessionStatusConfiguring {
		return snap
	}

	id := s.id
	cfg := s.cfg
	snap.SessionID = &id
	snap.Config = &cfg
	snap.CurrentIndex = s.nav.Current()
	snap.TimeRemainingSeconds = s.timer.Remaining()
	snap.Flagged = s.nav.Flagged()
	snap.EntitlementRemaining = s.remaining
	snap.Answers = make([]model.Answer, len(s.answers))
	for i, a := range s.answers {
		snap.Answers[i] = model.CloneAnswer(a)
	}

	snap.Questions = make([]model.Question, len(s.questions))
	for i, q := range s.questions {
		if s.status == model.SessionStatusInProgress {
			q = q.Redacted()
		}
		snap.Questions[i] = q
	}

	snap.Statuses = make([]model.QuestionStatus, len(s.questions))
	for i := range s.questions {
		snap.Statuses[i] = s.nav.StatusOf(i, s.answers)
	}
	for _, sec := range s.sections {
		snap.Sections = append(snap.Sections, s.nav.SectionStats(sec, s.answers))
	}

	snap.Result = s.result.Clone()

	if s.status == model.SessionStatusReviewing {
		view := &ReviewView{
			IncorrectOnly: s.review.IncorrectOnly(),
			Position:      s.review.Position(),
			Total:         s.review.Len(),
			PerfectScore:  s.review.Perfect(),
		}
		item, err := s.review.Current()
		if err == nil {
			view.Item = &item
		} else if !errors.Is(err, ErrPerfectScore) {
			s.log.Warn().Err(err).Msg("Review cursor has no item")
		}
		snap.Review = view
	}

	return snap
}
