package core

import "github.com/pkg/errors"

// FieldError pins a validation failure to the input field that caused it.
type FieldError struct {
	Field string
	Error string
}

// ValidationError rejects caller input. It carries either a single message
// (Err) or per-field errors (Fields); transports render Fields as a
// field -> message map when present.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return ""
}

// FieldMap flattens Fields for rendering; nil when there are none.
func (err ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	flds := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

// shutdown marks errors that should take the whole process down,
// typically data integrity issues surfaced by a handler.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string { return s.message }

// IsShutdown reports whether err (or its cause) requests a graceful shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
