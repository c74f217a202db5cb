package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/middleware"
	"github.com/stemsi/exstem-mockexam/internal/model"
	"github.com/stemsi/exstem-mockexam/internal/repository"
	"github.com/stemsi/exstem-mockexam/internal/response"
	"github.com/stemsi/exstem-mockexam/internal/service"
	"github.com/stemsi/exstem-mockexam/internal/validator"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// memRedis covers the counter and list commands the services use.
type memRedis struct {
	mu     sync.Mutex
	values map[string]string
	lists  map[string][]string
}

func newMemRedis() *memRedis {
	return &memRedis{values: map[string]string{}, lists: map[string][]string{}}
}

func (m *memRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	v, ok := m.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *memRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.Atoi(m.values[key])
	n++
	m.values[key] = strconv.Itoa(n)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(n))
	return cmd
}

func (m *memRedis) ExpireAt(ctx context.Context, _ string, _ time.Time) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (m *memRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.lists[key] = append(m.lists[key], string(v.([]byte)))
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(m.lists[key])))
	return cmd
}

func (m *memRedis) LLen(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(m.lists[key])))
	return cmd
}

type stubBank struct {
	questions []model.Question
	err       error
}

func (b stubBank) FetchQuestions(_ context.Context, _ string, count int) ([]model.Question, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.questions[:min(count, len(b.questions))], nil
}

// bankOf returns n single-choice questions whose key is option 1.
func bankOf(n int) stubBank {
	qs := make([]model.Question, n)
	for i := range qs {
		correct := 1
		qs[i] = model.Question{
			ID:                 uuid.New(),
			PaperCode:          "TX",
			Type:               model.QuestionTypeMCQSingle,
			Prompt:             fmt.Sprintf("Question %d", i+1),
			Options:            []string{"a", "b", "c"},
			CorrectOptionIndex: &correct,
			TopicName:          "VAT",
		}
	}
	return stubBank{questions: qs}
}

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

type stubHistory struct {
	items  []repository.SessionSummary
	total  int
	limit  int
	offset int
	err    error
}

func (s *stubHistory) ListByUser(_ context.Context, _ int, limit, offset int) ([]repository.SessionSummary, int, error) {
	s.limit, s.offset = limit, offset
	return s.items, s.total, s.err
}

type testServer struct {
	engine    *gin.Engine
	auth      *service.AuthService
	mockExams *service.MockExamService
	rdb       *memRedis
	history   *stubHistory
}

func newTestServer(t *testing.T, bank stubBank) *testServer {
	t.Helper()
	cfg := &config.Config{JWTSecret: "handler-secret", JWTExpiry: time.Hour, FreeDailyMockExams: 1}
	rdb := newMemRedis()
	auth := service.NewAuthService(cfg)
	mockExams := service.NewMockExamService(
		bank,
		service.NewEntitlementService(rdb, cfg, zerolog.Nop()),
		service.NewResultPublisher(rdb),
		zerolog.Nop(),
		service.WithScheduler(idleScheduler{}),
		service.WithPublishTimeout(time.Second),
	)
	history := &stubHistory{}

	h := NewMockExamHandler(mockExams, history, zerolog.Nop())
	wsh := NewWSHandler(mockExams, zerolog.Nop(), nil)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	api := r.Group("/api/v1/mock-exams", middleware.RequireUserJWT(auth))
	api.POST("", h.Start)
	api.GET("/history", h.History)
	api.GET("/current", h.GetCurrent)
	api.DELETE("/current", h.Reset)
	api.PUT("/current/answers/:index", h.SubmitAnswer)
	api.DELETE("/current/answers/:index", h.ClearAnswer)
	api.POST("/current/flags/:index", h.ToggleFlag)
	api.POST("/current/navigate", h.Navigate)
	api.POST("/current/submit", h.Submit)
	api.GET("/current/result", h.GetResult)
	api.POST("/current/review", h.EnterReview)
	api.POST("/current/review/toggle", h.ToggleReviewFilter)
	api.POST("/current/review/next", h.ReviewNext)
	api.POST("/current/review/previous", h.ReviewPrevious)
	api.DELETE("/current/review", h.ExitReview)
	api.POST("/current/keys", h.PressKey)
	r.GET("/ws/v1/mock-exams/current/stream", middleware.RequireUserWSAuth(auth), wsh.Stream)

	t.Cleanup(mockExams.Wait)
	return &testServer{engine: r, auth: auth, mockExams: mockExams, rdb: rdb, history: history}
}

func (s *testServer) token(t *testing.T, userID int, tier service.SubscriptionTier) string {
	t.Helper()
	tok, err := s.auth.GenerateToken(userID, tier)
	require.NoError(t, err)
	return tok
}

// envelope is response.Response with the data left raw.
type envelope struct {
	Data       json.RawMessage      `json:"data"`
	Error      *response.ErrorBody  `json:"error"`
	Pagination *response.Pagination `json:"pagination"`
}

func (s *testServer) do(t *testing.T, token, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
