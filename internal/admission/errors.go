package admission

import "fmt"

// Error codes returned to callers. They are stable and map one-to-one to HTTP
// responses in the handlers package.
const (
	CodeInvalidPrompt       = "INVALID_PROMPT"
	CodePromptTooShort      = "PROMPT_TOO_SHORT"
	CodePromptTooLong       = "PROMPT_TOO_LONG"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeInternal            = "INTERNAL"
)

// Error is the typed result of a rejected admission.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
