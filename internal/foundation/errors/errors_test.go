package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "dynlinks.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		file, ok := err.Context().GetString("file")
		assert.True(t, ok)
		assert.Equal(t, "dynlinks.yaml", file)
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())
	})

	t.Run("Wrapped error chain", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := ItemsError("catalog fetch failed").Build()
		wrapped := WrapError(cause, CategoryItems, "catalog fetch failed").Retryable().Build()

		assert.ErrorIs(t, wrapped, cause)
		assert.ErrorIs(t, wrapped, err)
		assert.True(t, wrapped.CanRetry())
		assert.False(t, wrapped.IsFatal())
	})

	t.Run("AsClassified through fmt wrapping", func(t *testing.T) {
		inner := ValidationError("rule 2: empty search_pattern").Build()
		outer := fmt.Errorf("load: %w", inner)

		c, ok := AsClassified(outer)
		require.True(t, ok)
		assert.Equal(t, CategoryValidation, c.Category())
		assert.True(t, HasCategory(outer, CategoryValidation))
		assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	})
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad").Build(), 2},
		{"config", ConfigError("bad").Build(), 7},
		{"items", ItemsError("down").Build(), 8},
		{"render", RenderError("broken html").Build(), 11},
		{"runtime", RuntimeError("listen").Build(), 12},
		{"internal", InternalError("bug").Build(), 10},
		{"unclassified", stderrors.New("unknown"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("docs_base is required").WithContext("path", "dynlinks.yaml").Build())

	assert.Equal(t, 7, code)
	assert.Contains(t, out.String(), "docs_base is required")
	assert.Contains(t, out.String(), "path: dynlinks.yaml")
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/doc/missing.html", nil)

	adapter.WriteErrorResponse(rec, req, NotFoundError("page not found").WithContext("document", "missing").Build())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "page not found", payload.Error)
	assert.Equal(t, "not_found", payload.Code)
	assert.Equal(t, "missing", payload.Details["document"])
	assert.False(t, payload.Retryable)
}

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	assert.Equal(t, http.StatusOK, adapter.StatusCodeFor(nil))
	assert.Equal(t, http.StatusBadGateway, adapter.StatusCodeFor(ItemsError("x").Build()))
	assert.Equal(t, http.StatusUnprocessableEntity, adapter.StatusCodeFor(RenderError("x").Build()))
	assert.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(stderrors.New("x")))
}
