package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slink-ws/asciidoc2confluence/pkg/logging"
)

func TestContextFunctions(t *testing.T) {
	t.Run("FromContext falls back to default", func(t *testing.T) {
		assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	})

	t.Run("fields are attached to the context logger", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithPath(ctx, "docs/setup.adoc")
		ctx = logging.WithSpace(ctx, "DOCS")
		ctx = logging.WithTitle(ctx, "Setup Guide")

		logging.FromContext(ctx).Info().Msg("published")

		assert.True(t, tl.ContainsAll(
			`"path":"docs/setup.adoc"`,
			`"space":"DOCS"`,
			`"title":"Setup Guide"`,
			"published",
		))
		assert.Equal(t, 1, tl.Count())
	})

	t.Run("WithRunID tags the run", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithRunID(ctx, "run-1")

		logging.FromContext(ctx).Warn().Msg("x")
		assert.True(t, tl.Contains(`"run_id":"run-1"`))
	})

	t.Run("WithFields handles errors", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithFields(ctx, map[string]any{"error": assert.AnError, "page_id": "42"})

		logging.FromContext(ctx).Error().Msg("failed")
		assert.True(t, tl.ContainsAll(`"page_id":"42"`, assert.AnError.Error()))
	})
}
