package engine

import "errors"

var (
	// ErrUpgradeRequired means entitlement denied the start. It is not retried.
	ErrUpgradeRequired = errors.New("upgrade required")
	// ErrEntitlementCheck wraps a failure to reach the entitlement provider.
	ErrEntitlementCheck = errors.New("entitlement check failed")
	// ErrQuestionFetch wraps a question bank failure. The caller may retry.
	ErrQuestionFetch = errors.New("question bank unavailable")
	// ErrNoQuestions means the bank returned an empty batch.
	ErrNoQuestions = errors.New("question bank returned no questions")

	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotInProgress     = errors.New("session is not in progress")
	ErrNotReviewing      = errors.New("session is not reviewing")
	ErrIndexOutOfRange   = errors.New("question index out of range")
	ErrAnswerMismatch    = errors.New("answer shape does not match question type")

	// ErrPerfectScore is the terminal condition of an empty incorrect-only review.
	ErrPerfectScore = errors.New("perfect score: nothing to review")
)
