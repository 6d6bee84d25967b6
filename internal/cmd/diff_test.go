package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiffCmd(t *testing.T) {
	cmd := NewDiffCmd()

	assert.Equal(t, "diff <file>", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.Flags().Lookup("transition"))
}

func TestDiff(t *testing.T) {
	dir, cfg := workspace(t, map[string]string{"page.cue": pageCUE})

	t.Run("shows transition changes", func(t *testing.T) {
		out, _, err := execute(t, "--config", cfg, "diff", src(dir, "page.cue"), "--transition", "edge", "--color=false")
		require.NoError(t, err)
		assert.Contains(t, out, "page.cue")
		assert.Contains(t, out, "edge")
		assert.NotContains(t, out, "No changes detected.")
	})

	t.Run("no changes", func(t *testing.T) {
		out, _, err := execute(t, "--config", cfg, "diff", src(dir, "page.cue"), "--transition", "same", "--color=false")
		require.NoError(t, err)
		assert.Contains(t, out, "No changes detected.")
	})

	t.Run("transition is required", func(t *testing.T) {
		_, _, err := execute(t, "--config", cfg, "diff", src(dir, "page.cue"))
		assert.Error(t, err)
	})

	t.Run("unknown transition", func(t *testing.T) {
		_, _, err := execute(t, "--config", cfg, "diff", src(dir, "page.cue"), "--transition", "ssr")
		requireExitCode(t, err, ExitValidationError)
	})

	t.Run("missing source", func(t *testing.T) {
		_, _, err := execute(t, "--config", cfg, "diff", src(dir, "nope.cue"), "--transition", "edge")
		requireExitCode(t, err, ExitNotFound)
	})
}
