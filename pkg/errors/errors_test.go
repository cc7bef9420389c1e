package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("cart", "abc-123")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "cart with id abc-123 not found")
}

func TestAppError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, NotFound("cart", "x"), ErrNotFound)
	assert.ErrorIs(t, InvalidInput("bad"), ErrInvalidInput)
	assert.ErrorIs(t, Forbidden("nope"), ErrForbidden)
	assert.ErrorIs(t, Conflict("race"), ErrConflict)
	assert.ErrorIs(t, Internal(errors.New("boom")), ErrInternal)
}

func TestConflict_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("save cart: %w", Conflict("concurrent update"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"app error", NotFound("cart", "x"), http.StatusNotFound},
		{"not found sentinel", ErrNotFound, http.StatusNotFound},
		{"conflict sentinel", ErrConflict, http.StatusConflict},
		{"invalid input sentinel", ErrInvalidInput, http.StatusBadRequest},
		{"forbidden sentinel", ErrForbidden, http.StatusForbidden},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("base")
	wrapped := Wrap(base, "context")
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "context: base", wrapped.Error())
}
