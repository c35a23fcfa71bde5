package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("rule", "rule-001")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "rule with id rule-001 not found")
}

func TestConflict(t *testing.T) {
	err := Conflict("run already in progress")

	assert.Equal(t, http.StatusConflict, err.Status)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("rule", "x")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("bad")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestHTTPStatus_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("load rule: %w", NotFound("rule", "x"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "run engine")

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "run engine: boom", err.Error())
}
