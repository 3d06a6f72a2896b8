package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)

	l.Info("hidden")
	l.Warn("shown", "block", 3)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "block=3")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	JSON(&buf, slog.LevelInfo).Info("flush", "events", 10)
	require.Contains(t, buf.String(), `"events":10`)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug)

	ctx := WithContext(context.Background(), l)
	require.Same(t, l, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	fallback.Error("dropped")
	require.Empty(t, buf.String())
}
