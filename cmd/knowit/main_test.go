package main

import (
	"flag"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/poiesic/knowit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func contextWithLogLevel(t *testing.T, level string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", level, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger(t *testing.T) {
	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO", "Debug"} {
			assert.NoError(t, setupLogger(contextWithLogLevel(t, level)), level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := setupLogger(contextWithLogLevel(t, "verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verbose")
	})

	t.Run("debug level enables debug logging", func(t *testing.T) {
		require.NoError(t, setupLogger(contextWithLogLevel(t, "debug")))
		assert.True(t, slog.Default().Enabled(nil, slog.LevelDebug))
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one line", firstLine("one line"))
	assert.Equal(t, "first", firstLine("first\nsecond"))
	assert.Equal(t, "", firstLine("\nsecond"))
}

func TestOpenSearcher_UsesConfiguredTopK(t *testing.T) {
	cfg := config.Default()
	cfg.IndexDir = filepath.Join(t.TempDir(), "index_db")
	cfg.TopKResults = 7

	kb, searcher, err := openSearcher(cfg)
	require.NoError(t, err)
	defer kb.Close()

	assert.Equal(t, 7, searcher.TopK())
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	app := &cli.App{
		Name: "knowit",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml"},
		},
		Commands: []*cli.Command{
			{Name: "search", Action: searchCommand},
			{Name: "context", Action: contextCommand},
		},
	}

	err := app.Run([]string{"knowit", "search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")

	err = app.Run([]string{"knowit", "context"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}
