package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got, s)
	}

	got, ok := ParseLogLevel("verbose")
	require.False(t, ok)
	require.Equal(t, zapcore.InfoLevel, got)
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewTo(&buf, zapcore.DebugLevel)

	ctx := ToContext(context.Background(), l)
	ctx = WithKV(ctx, "device", "/dev/ttyACM0")
	ctx = WithName(ctx, "monitor")

	InfoKV(ctx, "event", "name", "locked")
	require.NoError(t, FromContext(ctx).Sync())

	out := buf.String()
	require.Contains(t, out, "monitor")
	require.Contains(t, out, "event")
	require.Contains(t, out, `"device": "/dev/ttyACM0"`)
	require.Contains(t, out, `"name": "locked"`)
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewTo(&buf, zapcore.WarnLevel)
	ctx := ToContext(context.Background(), l)

	Infof(ctx, "hidden %d", 1)
	Warnf(ctx, "shown %d", 2)

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown 2")
}
