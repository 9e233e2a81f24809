package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the workflow taxonomy. Callers match them with
// errors.Is; wrapped context stays attached via pkg/errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("concurrent modification detected")
	ErrInvalidTransition = errors.New("transition is not allowed")
	ErrInviteExpired     = errors.New("invitation has expired")
	ErrInviteDeclined    = errors.New("invitation was declined")
)

// ValidationError names the specific field and values in conflict so the
// caller can surface an actionable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
