package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidIndex   ErrCode = "INVALID_INDEX"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Mock exam ─────────────────────────────────────────────────────
	ErrUpgradeRequired      ErrCode = "UPGRADE_REQUIRED"
	ErrQuestionBank         ErrCode = "QUESTION_BANK_UNAVAILABLE"
	ErrInvalidSessionState  ErrCode = "INVALID_SESSION_STATE"
	ErrNoActiveSession      ErrCode = "NO_ACTIVE_SESSION"
	ErrResultNotAvailable   ErrCode = "RESULT_NOT_AVAILABLE"
	ErrEntitlementUnchecked ErrCode = "ENTITLEMENT_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidIndex:
		return "Question index is invalid."
	case ErrInvalidPayload:
		return "Request payload is invalid."

	case ErrUpgradeRequired:
		return "You have used today's free mock exam. Upgrade to keep practising."
	case ErrQuestionBank:
		return "Questions could not be loaded. Please try again."
	case ErrInvalidSessionState:
		return "This action is not available at the current stage of the exam."
	case ErrNoActiveSession:
		return "You have no mock exam yet. Start one first."
	case ErrResultNotAvailable:
		return "The exam has not been submitted yet."
	case ErrEntitlementUnchecked:
		return "Your plan could not be verified. Please try again."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrNotFound:
		return "Resource not found."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
