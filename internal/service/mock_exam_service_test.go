package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/engine"
	"github.com/stemsi/exstem-mockexam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newMockExams(bank engine.QuestionBank, rdb *fakeRedis) *MockExamService {
	ents := newEntitlements(rdb, submittedAt)
	pub := NewResultPublisher(rdb)
	pub.now = func() time.Time { return submittedAt }
	return NewMockExamService(bank, ents, pub, zerolog.Nop(),
		WithClock(fixedClock{submittedAt}),
		WithScheduler(idleScheduler{}),
		WithPublishTimeout(time.Second),
	)
}

func TestMockExamStartAndSubmitPublishes(t *testing.T) {
	rdb := newFakeRedis()
	svc := newMockExams(bankOf(15), rdb)
	user := User{ID: 11, Tier: TierFree}

	snap, err := svc.Start(context.Background(), user, "MA", model.LengthTierQuick)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, snap.Status)
	require.NotNil(t, snap.EntitlementRemaining)
	assert.Equal(t, 0, *snap.EntitlementRemaining)
	assert.Equal(t, "1", rdb.values[config.CacheKey.MockExamUsageKey(11, submittedAt)])

	sess, err := svc.Current(11)
	require.NoError(t, err)
	require.NoError(t, sess.Answer(0, model.ChoiceAnswer{Index: 0}))
	res, err := sess.Submit()
	require.NoError(t, err)
	svc.Wait()

	logs := rdb.list(config.WorkerKey.PersistSessionLogsQueue)
	require.Len(t, logs, 1)
	var log model.SessionLog
	require.NoError(t, json.Unmarshal([]byte(logs[0]), &log))
	assert.Equal(t, res.SessionID, log.SessionID)
	assert.Equal(t, 11, log.UserID)
	assert.Equal(t, 1, log.CorrectAnswers)

	assert.Len(t, rdb.list(config.WorkerKey.PersistReviewUpdatesQueue), 15)
	assert.Len(t, rdb.list(config.WorkerKey.PersistTopicOutcomesQueue), 15)

	badges := rdb.list(config.WorkerKey.BadgeTriggersQueue)
	require.Len(t, badges, 1)
	assert.JSONEq(t, `{"user_id":11,"triggered_at":"2026-05-04T10:00:00Z"}`, badges[0])
}

func TestMockExamStartDenied(t *testing.T) {
	rdb := newFakeRedis()
	svc := newMockExams(bankOf(15), rdb)
	user := User{ID: 12, Tier: TierFree}
	require.NoError(t, svc.entitlements.RecordUsage(context.Background(), user.ID, user.Tier))

	_, err := svc.Start(context.Background(), user, "MA", model.LengthTierQuick)
	assert.ErrorIs(t, err, engine.ErrUpgradeRequired)
	assert.Equal(t, "1", rdb.values[config.CacheKey.MockExamUsageKey(12, submittedAt)], "denied starts are not counted")

	sess, err := svc.Current(12)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusConfiguring, sess.Status())

	_, err = svc.Start(context.Background(), User{ID: 12, Tier: TierPro}, "MA", model.LengthTierQuick)
	assert.NoError(t, err, "upgraded token is honoured on the same session")
}

func TestMockExamStartErrors(t *testing.T) {
	rdb := newFakeRedis()

	_, err := newMockExams(bankOf(15), rdb).Start(context.Background(), User{ID: 1}, "MA", "marathon")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, model.ErrUnknownLengthTier)

	_, err = newMockExams(stubBank{err: errors.New("timeout")}, rdb).Start(context.Background(), User{ID: 1, Tier: TierPro}, "MA", model.LengthTierQuick)
	assert.ErrorIs(t, err, engine.ErrQuestionFetch)

	_, err = newMockExams(bankOf(0), rdb).Start(context.Background(), User{ID: 1, Tier: TierPro}, "MA", model.LengthTierQuick)
	assert.ErrorIs(t, err, engine.ErrNoQuestions)
}

func TestMockExamCurrentWithoutSession(t *testing.T) {
	svc := newMockExams(bankOf(15), newFakeRedis())
	_, err := svc.Current(99)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	sess := svc.Attach(User{ID: 99})
	again, err := svc.Current(99)
	require.NoError(t, err)
	assert.Same(t, sess, again)
}

func TestResultPublisherSkipsEmptyBatches(t *testing.T) {
	rdb := newFakeRedis()
	pub := NewResultPublisher(rdb)

	require.NoError(t, pub.UpdateReviews(context.Background(), nil))
	require.NoError(t, pub.TrackTopics(context.Background(), []model.TopicOutcome{}))
	assert.Empty(t, rdb.lists)

	rdb.err = errors.New("READONLY")
	err := pub.LogSession(context.Background(), model.SessionLog{})
	assert.Error(t, err)
}
