package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("missing query")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "missing query", err.Message)
	assert.Nil(t, err.Cause)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "missing query")
}

func TestUnauthorizedError(t *testing.T) {
	err := UnauthorizedError("no provider session")

	assert.Equal(t, TypeUnauthorized, err.Type)
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus())
}

func TestUpstreamErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := UpstreamError("playback state fetch failed", cause)

	assert.Equal(t, TypeUpstream, err.Type)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithFieldChaining(t *testing.T) {
	err := NotFoundError("track not found").
		WithField("track_id", "abc123").
		WithField("query", "daft punk")

	assert.Equal(t, "abc123", err.Context["track_id"])
	assert.Equal(t, "daft punk", err.Context["query"])
}

func TestToResponse(t *testing.T) {
	err := ValidationError("bad input").WithField("param", "q")
	resp := err.ToResponse()

	assert.Equal(t, "bad input", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "q", resp.Context["param"])
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured error passes through", func(t *testing.T) {
		orig := UpstreamError("fetch failed", nil)
		got := AsStructuredError(orig)
		assert.Same(t, orig, got)
	})

	t.Run("wrapped structured error is unwrapped", func(t *testing.T) {
		orig := NotFoundError("gone")
		wrapped := fmt.Errorf("handler: %w", orig)
		got := AsStructuredError(wrapped)
		require.NotNil(t, got)
		assert.Equal(t, TypeNotFound, got.Type)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := AsStructuredError(errors.New("boom"))
		require.NotNil(t, got)
		assert.Equal(t, TypeInternal, got.Type)
		assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus())
	})
}
