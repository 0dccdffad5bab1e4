package log

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := format(ts, LevelWarn, CatCompose, "rejected", []any{"group", "calc", "orphan"})
	require.Equal(t, "2026-03-04T05:06:07 [WARN] [compose] rejected group=calc orphan=<missing>\n", got)
}

func TestInitWriter_LevelsAndToggle(t *testing.T) {
	var buf bytes.Buffer
	cleanup := InitWriter(&buf)
	defer cleanup()

	SetMinLevel(LevelInfo)
	Debug(CatRepo, "hidden")
	Info(CatRepo, "shown", "types", 3)
	ErrorErr(CatDB, "failed", errors.New("boom"))

	SetEnabled(false)
	Error(CatDB, "muted")
	SetEnabled(true)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.NotContains(t, out, "muted")
	require.Contains(t, out, "[INFO] [repo] shown types=3")
	require.Contains(t, out, "[ERROR] [db] failed error=boom")
}

func TestInit_FileAndListener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Warn(CatLoader, "manifest", "path", "x.yaml")

	event, ok := listener.Next(ctx)
	require.True(t, ok)
	require.Equal(t, EntryEvent, event.Type)
	require.Contains(t, event.Payload, "[loader] manifest path=x.yaml")

	cleanup()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "path=x.yaml\n"))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, "error": LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}
