package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/engine"
	"github.com/stemsi/exstem-mockexam/internal/middleware"
	"github.com/stemsi/exstem-mockexam/internal/model"
	"github.com/stemsi/exstem-mockexam/internal/repository"
	"github.com/stemsi/exstem-mockexam/internal/response"
	"github.com/stemsi/exstem-mockexam/internal/service"
	"github.com/stemsi/exstem-mockexam/internal/validator"
)

// HistoryStore lists finished mock exams. Implemented by
// *repository.SessionLogRepository.
type HistoryStore interface {
	ListByUser(ctx context.Context, userID, limit, offset int) ([]repository.SessionSummary, int, error)
}

// MockExamHandler exposes the mock exam session over REST.
type MockExamHandler struct {
	mockExams *service.MockExamService
	history   HistoryStore
	log       zerolog.Logger
}

// NewMockExamHandler creates a new MockExamHandler.
func NewMockExamHandler(mockExams *service.MockExamService, history HistoryStore, log zerolog.Logger) *MockExamHandler {
	return &MockExamHandler{
		mockExams: mockExams,
		history:   history,
		log:       log.With().Str("component", "mock_exam_handler").Logger(),
	}
}

func userFrom(c *gin.Context) (service.User, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return service.User{}, false
	}
	return service.User{ID: claims.UserID, Tier: claims.Tier}, true
}

// current resolves the caller's session or writes the failure.
func (h *MockExamHandler) current(c *gin.Context) (*engine.Session, bool) {
	user, ok := userFrom(c)
	if !ok {
		return nil, false
	}
	sess, err := h.mockExams.Current(user.ID)
	if err != nil {
		failSession(c, h.log, err)
		return nil, false
	}
	return sess, true
}

func indexParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIndex)
		return 0, false
	}
	return idx, true
}

// Start godoc
// POST /api/v1/mock-exams
// Checks the daily allowance, draws the questions and starts the countdown.
func (h *MockExamHandler) Start(c *gin.Context) {
	user, ok := userFrom(c)
	if !ok {
		return
	}

	var req model.StartMockExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.mockExams.Start(c.Request.Context(), user, req.PaperCode, req.LengthTier)
	if err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, snap)
}

// GetCurrent godoc
// GET /api/v1/mock-exams/current
func (h *MockExamHandler) GetCurrent(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// Reset godoc
// DELETE /api/v1/mock-exams/current
// Discards a finished attempt so another exam can be configured.
func (h *MockExamHandler) Reset(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	if err := sess.Reset(); err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// SubmitAnswer godoc
// PUT /api/v1/mock-exams/current/answers/:index
func (h *MockExamHandler) SubmitAnswer(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	idx, ok := indexParam(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if len(req.Answer) == 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"answer": "answer is required"})
		return
	}

	if err := sess.AnswerJSON(idx, req.Answer); err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// ClearAnswer godoc
// DELETE /api/v1/mock-exams/current/answers/:index
func (h *MockExamHandler) ClearAnswer(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	if err := sess.ClearAnswer(idx); err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// ToggleFlag godoc
// POST /api/v1/mock-exams/current/flags/:index
func (h *MockExamHandler) ToggleFlag(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	idx, ok := indexParam(c)
	if !ok {
		return
	}
	flagged, err := sess.ToggleFlag(idx)
	if err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"index": idx, "flagged": flagged})
}

// Navigate godoc
// POST /api/v1/mock-exams/current/navigate
func (h *MockExamHandler) Navigate(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := sess.NavigateTo(*req.Index); err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// Submit godoc
// POST /api/v1/mock-exams/current/submit
// Freezes the attempt and returns the scored result. Repeated calls return
// the same result.
func (h *MockExamHandler) Submit(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	res, err := sess.Submit()
	if err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// GetResult godoc
// GET /api/v1/mock-exams/current/result
func (h *MockExamHandler) GetResult(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	res := sess.Result()
	if res == nil {
		response.Fail(c, http.StatusConflict, response.ErrResultNotAvailable)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// reviewView replies with the review cursor. A perfect score under the
// incorrect-only filter is a 200 with perfect_score set.
func (h *MockExamHandler) reviewView(c *gin.Context, sess *engine.Session) {
	response.Success(c, http.StatusOK, sess.Snapshot().Review)
}

// EnterReview godoc
// POST /api/v1/mock-exams/current/review
// A perfect score with incorrect_only set answers 200 with perfect_score.
func (h *MockExamHandler) EnterReview(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	var req model.EnterReviewRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}
	if err := sess.EnterReview(req.IncorrectOnly); err != nil {
		failSession(c, h.log, err)
		return
	}
	h.reviewView(c, sess)
}

// ToggleReviewFilter godoc
// POST /api/v1/mock-exams/current/review/toggle
func (h *MockExamHandler) ToggleReviewFilter(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	if _, err := sess.ToggleIncorrectOnly(); err != nil {
		failSession(c, h.log, err)
		return
	}
	h.reviewView(c, sess)
}

// ReviewNext godoc
// POST /api/v1/mock-exams/current/review/next
func (h *MockExamHandler) ReviewNext(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	if err := sess.ReviewNext(); err != nil && !errors.Is(err, engine.ErrPerfectScore) {
		failSession(c, h.log, err)
		return
	}
	h.reviewView(c, sess)
}

// ReviewPrevious godoc
// POST /api/v1/mock-exams/current/review/previous
func (h *MockExamHandler) ReviewPrevious(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	if err := sess.ReviewPrevious(); err != nil && !errors.Is(err, engine.ErrPerfectScore) {
		failSession(c, h.log, err)
		return
	}
	h.reviewView(c, sess)
}

// ExitReview godoc
// DELETE /api/v1/mock-exams/current/review
func (h *MockExamHandler) ExitReview(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	if err := sess.ExitReview(); err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// PressKey godoc
// POST /api/v1/mock-exams/current/keys
func (h *MockExamHandler) PressKey(c *gin.Context) {
	sess, ok := h.current(c)
	if !ok {
		return
	}
	var req model.KeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := sess.HandleKey(engine.Key(req.Key)); err != nil {
		failSession(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// History godoc
// GET /api/v1/mock-exams/history?page=1&per_page=20
func (h *MockExamHandler) History(c *gin.Context) {
	user, ok := userFrom(c)
	if !ok {
		return
	}
	var q model.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	items, total, err := h.history.ListByUser(c.Request.Context(), user.ID, q.PerPage, (q.Page-1)*q.PerPage)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to list mock exam history")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, items, response.NewPagination(q.Page, q.PerPage, total))
}
