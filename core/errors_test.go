package core_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/majorhelp/majorhelp/core"
)

func TestValidationError(t *testing.T) {
	err := core.NewValidationError(errors.New("invalid credentials"))
	vErr, ok := err.(*core.ValidationError)
	if assert.True(t, ok, "expected *core.ValidationError, got %T", err) {
		assert.Equal(t, "invalid credentials", vErr.Error())
		assert.Nil(t, vErr.FieldMap())
	}

	err = core.NewValidationError(nil,
		core.FieldError{Field: "name", Error: "this field is required"},
		core.FieldError{Field: "aid", Error: "unknown field"},
	)
	vErr, ok = err.(*core.ValidationError)
	if assert.True(t, ok, "expected *core.ValidationError, got %T", err) {
		assert.Empty(t, vErr.Error())
		assert.Equal(t, map[string]string{
			"name": "this field is required",
			"aid":  "unknown field",
		}, vErr.FieldMap())
	}
}

func TestIsShutdown(t *testing.T) {
	err := core.NewShutdownError("integrity issue")
	assert.True(t, core.IsShutdown(err))
	assert.True(t, core.IsShutdown(errors.Wrap(err, "handling request")))
	assert.False(t, core.IsShutdown(errors.New("nope")))
}
