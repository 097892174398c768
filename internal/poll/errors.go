package poll

import "errors"

// Sentinel errors returned by controller operations. Compared with errors.Is;
// Code maps each to the stable code sent back over the wire.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNotAcceptingAnswers = errors.New("not accepting answers")
	ErrInvalidOption       = errors.New("invalid option")
	ErrDuplicateAnswer     = errors.New("already answered")
	ErrActionNotAllowedYet = errors.New("action not allowed yet")
)

// Code returns the wire error code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotAcceptingAnswers):
		return "not_accepting_answers"
	case errors.Is(err, ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, ErrDuplicateAnswer):
		return "duplicate_answer"
	case errors.Is(err, ErrActionNotAllowedYet):
		return "not_allowed_yet"
	default:
		return "internal"
	}
}
