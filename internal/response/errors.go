package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrInvalidOTP         ErrCode = "INVALID_OTP"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrNotTestOwner      ErrCode = "NOT_TEST_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrConflict      ErrCode = "CONFLICT"
	ErrUserExists    ErrCode = "USER_ALREADY_EXISTS"
	ErrTestIDTaken   ErrCode = "TEST_ID_TAKEN"

	// ─── Live-session ──────────────────────────────────────────────────
	ErrTestAlreadyLive ErrCode = "TEST_ALREADY_LIVE"
	ErrTestNotLive     ErrCode = "TEST_NOT_LIVE"
	ErrTestIsLive      ErrCode = "TEST_IS_LIVE"
	ErrNoQuestions     ErrCode = "NO_QUESTIONS"
	ErrStaleCursor     ErrCode = "STALE_CURSOR"
	ErrStaleAnswer     ErrCode = "STALE_ANSWER"
	ErrAlreadyAnswered ErrCode = "ALREADY_ANSWERED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Username or password is incorrect."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrInvalidOTP:
		return "The one-time code is invalid or has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrNotTestOwner:
		return "You are not the owner of this test."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrUserExists:
		return "That username or email is already registered."
	case ErrTestIDTaken:
		return "A test with that ID already exists."

	// ─── Live-session ──────────────────────────────────────────────────
	case ErrTestAlreadyLive:
		return "This test is already live."
	case ErrTestNotLive:
		return "This test is not currently live."
	case ErrTestIsLive:
		return "This test is live and cannot be edited."
	case ErrNoQuestions:
		return "This test has no questions."
	case ErrStaleCursor:
		return "The question pointer has moved on. Refresh and try again."
	case ErrStaleAnswer:
		return "This answer arrived for a question that is no longer current."
	case ErrAlreadyAnswered:
		return "An answer for the current question was already recorded."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "The file type is not supported."
	case ErrFileTooLarge:
		return "The file size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
