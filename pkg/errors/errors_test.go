package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "page",
			ID:       "Setup Guide",
		}
		assert.Equal(t, `page "Setup Guide" not found`, err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("page", "test")
		wrapped := fmt.Errorf("lookup: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "url",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field url: cannot be empty", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("", nil, "invalid configuration")
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
	})
}

// TestAPIError_Is verifies status code classification.
func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
		want   bool
	}{
		{"404 is not found", 404, pkgerrors.ErrNotFound, true},
		{"401 is unauthorized", 401, pkgerrors.ErrUnauthorized, true},
		{"429 is rate limited", 429, pkgerrors.ErrRateLimited, true},
		{"500 is unavailable", 500, pkgerrors.ErrUnavailable, true},
		{"503 is unavailable", 503, pkgerrors.ErrUnavailable, true},
		{"400 is not not-found", 400, pkgerrors.ErrNotFound, false},
		{"500 is not not-found", 500, pkgerrors.ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("confluence", tt.status, "boom")
			assert.Equal(t, tt.want, errors.Is(err, tt.target))
		})
	}
}

func TestAPIError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := &pkgerrors.APIError{
			Service:    "confluence",
			StatusCode: 403,
			Message:    "forbidden",
			Endpoint:   "https://wiki.example.com/rest/api/content",
		}
		assert.Contains(t, err.Error(), "confluence")
		assert.Contains(t, err.Error(), "403")
		assert.True(t, err.IsClientError())
		assert.True(t, pkgerrors.IsClientError(fmt.Errorf("wrapped: %w", err)))
	})

	t.Run("with wrapped error", func(t *testing.T) {
		baseErr := errors.New("bad json")
		err := &pkgerrors.APIError{Service: "confluence", StatusCode: 200, Message: "decode", Err: baseErr}
		assert.ErrorIs(t, err, baseErr)
	})
}

func TestTransportError(t *testing.T) {
	base := errors.New("connection refused")
	err := pkgerrors.NewTransportError("GET", "http://localhost/rest/api/content", base)

	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, base)
	assert.True(t, pkgerrors.IsUnavailable(err))
	assert.True(t, pkgerrors.IsTransport(fmt.Errorf("find: %w", err)))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("cli", "url, user and pass must be set together", nil)
	assert.Contains(t, err.Error(), "cli")
	assert.Contains(t, err.Error(), "must be set together")
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("permission denied")
		err := pkgerrors.NewIOError("read", "/docs/a.adoc", baseErr)
		assert.Equal(t, baseErr, err.Unwrap())
		assert.Contains(t, err.Error(), "/docs/a.adoc")
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("list", "/docs", errors.New("not a directory"))
		var ioErr *pkgerrors.IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "list", ioErr.Operation)
		assert.Equal(t, "/docs", ioErr.Path)
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
		assert.NoError(t, pkgerrors.WrapResource("update", "page", "1", nil))
		assert.NoError(t, pkgerrors.WrapParse("yaml", "x", nil))
	})
}

func TestResourceError(t *testing.T) {
	err := pkgerrors.WrapResource("update", "page", "42", pkgerrors.NewAPIError("confluence", 409, "version conflict"))
	var resErr *pkgerrors.ResourceError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "update", resErr.Operation)
	assert.Contains(t, err.Error(), "page 42")
	assert.True(t, pkgerrors.IsClientError(err))
}

func TestParseError(t *testing.T) {
	t.Run("with file and position", func(t *testing.T) {
		err := &pkgerrors.ParseError{
			Format:  "yaml",
			File:    "guide.adoc",
			Line:    3,
			Column:  1,
			Message: "unexpected token",
		}
		assert.Contains(t, err.Error(), "guide.adoc:3:1")
	})

	t.Run("without file", func(t *testing.T) {
		err := pkgerrors.NewParseError("json", "", "truncated", nil)
		assert.Equal(t, "json parse error: truncated", err.Error())
	})
}

func TestProcessError(t *testing.T) {
	base := errors.New("exit status 1")
	err := pkgerrors.NewProcessError("convert", "asciidoctor", "asciidoctor: FAILED", base)
	assert.Contains(t, err.Error(), "Output: asciidoctor: FAILED")
	assert.ErrorIs(t, err, base)
}

func TestTimeoutError(t *testing.T) {
	err := pkgerrors.NewTimeoutError("list pages", "30s", "deadline exceeded")
	assert.True(t, pkgerrors.IsTimeout(err))
	assert.Contains(t, err.Error(), "after 30s")
}
