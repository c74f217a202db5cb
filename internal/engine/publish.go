package engine

import (
	"context"
	"time"

	"github.com/stemsi/exstem-mockexam/internal/model"
)

// publish fans the frozen result out to the persistence collaborators.
// Failures are logged and never touch the result.
func (s *Session) publish(cfg model.SessionConfig, questions []model.Question, res *model.Result) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PublishTimeout)
	defer cancel()

	log := s.log.With().Str("session_id", res.SessionID.String()).Logger()
	sinks := s.opts.Sinks

	if sinks.Sessions != nil {
		if err := sinks.Sessions.LogSession(ctx, BuildSessionLog(s.opts.UserID, cfg, questions, res)); err != nil {
			log.Error().Err(err).Str("sink", "session_log").Msg("Persistence failed")
		}
	}
	if sinks.Reviews != nil {
		if err := sinks.Reviews.UpdateReviews(ctx, BuildReviewUpdates(s.opts.UserID, questions, res)); err != nil {
			log.Error().Err(err).Str("sink", "spaced_repetition").Msg("Persistence failed")
		}
	}
	if sinks.Topics != nil {
		if err := sinks.Topics.TrackTopics(ctx, BuildTopicOutcomes(s.opts.UserID, questions, res)); err != nil {
			log.Error().Err(err).Str("sink", "topic_performance").Msg("Persistence failed")
		}
	}
	if sinks.Badges != nil {
		if err := sinks.Badges.EvaluateBadges(ctx); err != nil {
			log.Error().Err(err).Str("sink", "badges").Msg("Persistence failed")
		}
	}
}

// BuildSessionLog is the session persistence payload of a result.
func BuildSessionLog(userID int, cfg model.SessionConfig, questions []model.Question, res *model.Result) model.SessionLog {
	raw := make([]model.RawLogEntry, len(questions))
	for i := range questions {
		q := &questions[i]
		entry := model.RawLogEntry{
			QuestionID: q.ID,
			UnitCode:   q.Unit(),
			Difficulty: q.Difficulty,
		}
		if i < len(res.Outcomes) {
			entry.Correct = res.Outcomes[i]
		}
		if i < len(res.TimePerQuestion) {
			entry.TimeSpentSeconds = int((time.Duration(res.TimePerQuestion[i]) * time.Millisecond).Round(time.Second) / time.Second)
		}
		raw[i] = entry
	}

	return model.SessionLog{
		SessionID:      res.SessionID,
		UserID:         userID,
		SessionType:    model.SessionTypeMockExam,
		PaperCode:      cfg.PaperCode,
		LengthTier:     cfg.LengthTier,
		TotalQuestions: res.TotalQuestions,
		CorrectAnswers: res.CorrectCount,
		AccuracyPct:    res.AccuracyPct,
		Passed:         res.Passed,
		ElapsedSeconds: res.TotalElapsedSeconds,
		SubmitReason:   res.SubmitReason,
		SubmittedAt:    res.SubmittedAt,
		RawLog:         raw,
	}
}

// BuildReviewUpdates is the spaced-repetition batch of a result.
func BuildReviewUpdates(userID int, questions []model.Question, res *model.Result) []model.ReviewUpdate {
	out := make([]model.ReviewUpdate, len(questions))
	for i, q := range questions {
		out[i] = model.ReviewUpdate{
			UserID:     userID,
			QuestionID: q.ID,
			IsCorrect:  i < len(res.Outcomes) && res.Outcomes[i],
		}
	}
	return out
}

// BuildTopicOutcomes is the topic tracker batch of a result. Questions
// without a topic are left out.
func BuildTopicOutcomes(userID int, questions []model.Question, res *model.Result) []model.TopicOutcome {
	out := make([]model.TopicOutcome, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.TopicName == "" {
			continue
		}
		out = append(out, model.TopicOutcome{
			UserID:    userID,
			PaperCode: q.PaperCode,
			UnitCode:  q.Unit(),
			TopicName: q.TopicName,
			IsCorrect: i < len(res.Outcomes) && res.Outcomes[i],
		})
	}
	return out
}
