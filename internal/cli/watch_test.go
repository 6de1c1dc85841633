package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/csvexport/internal/config"
	"github.com/mrlokans/csvexport/internal/entrypoint"
	"github.com/mrlokans/csvexport/internal/exporters"
	"github.com/mrlokans/csvexport/internal/watch"
)

func TestWatchCommand_ParseFlags(t *testing.T) {
	cmd := NewWatchCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-input", "people.json", "-header", "-debounce", "1s"}))

	assert.Equal(t, "people.json", cmd.Input)
	assert.Empty(t, cmd.Output)
	assert.True(t, cmd.Header)
	assert.Equal(t, time.Second, cmd.Debounce)
}

func TestWatchCommand_DefaultDebounce(t *testing.T) {
	cmd := NewWatchCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-input", "people.json"}))
	assert.Equal(t, watch.DefaultDebounce, cmd.Debounce)
}

func TestWatchCommand_Job(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(input, []byte(people), 0644))

	cfg := &config.Config{Export: config.Export{Dir: filepath.Join(dir, "exports")}}
	orchestrator := entrypoint.NewPipeline(nil)

	t.Run("derives output from input", func(t *testing.T) {
		cmd := NewWatchCommand()
		cmd.Input = input
		cmd.Header = true

		job, err := cmd.Job(orchestrator, cfg)
		require.NoError(t, err)
		assert.Equal(t, "people.csv", job.Filename())

		outcome := job.Run(context.Background(), "watch")
		require.Equal(t, exporters.StatusSuccess, outcome.Status, "%v", outcome.Err)

		data, err := os.ReadFile(filepath.Join(cfg.Export.Dir, "people.csv"))
		require.NoError(t, err)
		assert.Equal(t, "name,age\r\nAda,36.5\r\n\"Linus, T\",28\r\n", string(data))
	})

	t.Run("explicit output", func(t *testing.T) {
		cmd := NewWatchCommand()
		cmd.Input = input
		cmd.Output = filepath.Join(dir, "elsewhere", "team.csv")

		job, err := cmd.Job(orchestrator, cfg)
		require.NoError(t, err)
		assert.Equal(t, "team.csv", job.Filename())

		outcome := job.Run(context.Background(), "watch")
		require.Equal(t, exporters.StatusSuccess, outcome.Status, "%v", outcome.Err)
		assert.FileExists(t, cmd.Output)
	})

	t.Run("bad labels", func(t *testing.T) {
		cmd := NewWatchCommand()
		cmd.Input = input
		cmd.Labels = "nope"

		_, err := cmd.Job(orchestrator, cfg)
		assert.Error(t, err)
	})
}
