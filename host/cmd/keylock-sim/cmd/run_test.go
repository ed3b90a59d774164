package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"keylock/core"
)

func TestRunUnlocksAndRelocks(t *testing.T) {
	t.Parallel()

	cfg := core.DefaultConfig()
	cfg.HoldTicks = core.TimerFromDuration(20 * time.Millisecond)

	in := strings.NewReader("1\n2 # second\n\n3\nx\n4\n")
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, run(ctx, cfg, in, &out))

	text := out.String()
	require.Contains(t, text, "display [1 _ _ _]")
	require.Contains(t, text, "display [1 2 3 _]")
	require.Contains(t, text, "servo   2620 us\ndisplay [1 2 3 4]\n")
	require.Contains(t, text, "servo   320 us\ndisplay [_ 2 3 4]\n")
	require.True(t, strings.HasSuffix(text, "display [_ _ _ _]\nlocked, 1 attempts, 1 granted, 0 denied, 0 dropped\n"), text)
}

func TestRunDeniesWrongCode(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, run(ctx, core.DefaultConfig(), strings.NewReader("5\n6\n7\n8\n"), &out))

	require.NotContains(t, out.String(), "2620 us")
	require.Contains(t, out.String(), "locked, 1 attempts, 0 granted, 1 denied, 0 dropped")
}
