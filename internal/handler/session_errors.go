package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-mockexam/internal/engine"
	"github.com/stemsi/exstem-mockexam/internal/response"
	"github.com/stemsi/exstem-mockexam/internal/service"
)

// classify maps a mock exam error to its HTTP status and code.
func classify(err error) (int, response.ErrCode, bool) {
	switch {
	case errors.Is(err, engine.ErrUpgradeRequired):
		return http.StatusPaymentRequired, response.ErrUpgradeRequired, false
	case errors.Is(err, engine.ErrQuestionFetch), errors.Is(err, engine.ErrNoQuestions):
		return http.StatusServiceUnavailable, response.ErrQuestionBank, true
	case errors.Is(err, engine.ErrEntitlementCheck):
		return http.StatusServiceUnavailable, response.ErrEntitlementUnchecked, true
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrNotInProgress),
		errors.Is(err, engine.ErrNotReviewing):
		return http.StatusConflict, response.ErrInvalidSessionState, false
	case errors.Is(err, engine.ErrIndexOutOfRange):
		return http.StatusBadRequest, response.ErrInvalidIndex, false
	case errors.Is(err, engine.ErrAnswerMismatch), errors.Is(err, service.ErrInvalidConfig):
		return http.StatusBadRequest, response.ErrValidation, false
	case errors.Is(err, service.ErrNoActiveSession):
		return http.StatusNotFound, response.ErrNoActiveSession, false
	default:
		return http.StatusInternalServerError, response.ErrInternal, false
	}
}

// failSession writes the envelope for err. Unclassified errors are logged.
func failSession(c *gin.Context, log zerolog.Logger, err error) {
	status, code, retryable := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Mock exam request failed")
	}
	if retryable {
		response.FailRetryable(c, status, code)
		return
	}
	if status == http.StatusBadRequest && code == response.ErrValidation {
		response.FailWithFields(c, status, code, map[string]string{"detail": err.Error()})
		return
	}
	response.Fail(c, status, code)
}
