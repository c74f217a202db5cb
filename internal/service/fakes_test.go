package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-mockexam/internal/model"
)

// fakeRedis keeps counters and lists in memory.
type fakeRedis struct {
	mu       sync.Mutex
	values   map[string]string
	expiries map[string]time.Time
	lists    map[string][]string
	err      error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values:   make(map[string]string),
		expiries: make(map[string]time.Time),
		lists:    make(map[string][]string),
	}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	n, _ := strconv.Atoi(f.values[key])
	n++
	f.values[key] = strconv.Itoa(n)
	cmd.SetVal(int64(n))
	return cmd
}

func (f *fakeRedis) ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiries[key] = tm
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	for _, v := range values {
		if b, ok := v.([]byte); ok {
			f.lists[key] = append(f.lists[key], string(b))
		}
	}
	cmd.SetVal(int64(len(f.lists[key])))
	return cmd
}

func (f *fakeRedis) list(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}

type stubBank struct {
	questions []model.Question
	err       error
}

func (b stubBank) FetchQuestions(_ context.Context, _ string, count int) ([]model.Question, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.questions) > count {
		return b.questions[:count], nil
	}
	return b.questions, nil
}

func bankOf(n int) stubBank {
	qs := make([]model.Question, n)
	for i := range qs {
		correct := 0
		unit := "MA1"
		qs[i] = model.Question{
			ID:                 uuid.New(),
			PaperCode:          "MA",
			UnitCode:           &unit,
			Type:               model.QuestionTypeMCQSingle,
			Prompt:             "Pick the first option",
			Options:            []string{"a", "b"},
			CorrectOptionIndex: &correct,
			TopicName:          "Costing",
		}
	}
	return stubBank{questions: qs}
}

// idleScheduler never ticks.
type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
