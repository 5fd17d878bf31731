package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    HTTPStatuser
		status int
	}{
		{name: "validation", err: NewValidationError("username", "is required"), status: http.StatusBadRequest},
		{name: "not found", err: NewNotFoundError("user", ""), status: http.StatusNotFound},
		{name: "already exists", err: NewAlreadyExistsError("user", ""), status: http.StatusConflict},
		{name: "conflict", err: NewConflictError("user", ""), status: http.StatusConflict},
		{name: "internal", err: NewInternalError("boom", nil), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation failed: username - is required", NewValidationError("username", "is required").Error())
	assert.Equal(t, "validation failed: bad", NewValidationError("", "bad").Error())
	assert.Equal(t, "user not found", NewNotFoundError("user", "").Error())
	assert.Equal(t, "custom", NewNotFoundError("user", "custom").Error())
	assert.Equal(t, "user was modified concurrently", NewConflictError("user", "").Error())
	assert.Equal(t, "boom: cause", NewInternalError("boom", stderrors.New("cause")).Error())
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := stderrors.New("cause")
	err := fmt.Errorf("wrapped: %w", NewInternalError("boom", cause))

	assert.True(t, stderrors.Is(err, cause))

	var statuser HTTPStatuser
	assert.True(t, stderrors.As(err, &statuser))
	assert.Equal(t, http.StatusInternalServerError, statuser.HTTPStatus())
}
