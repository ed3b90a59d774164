package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keylock/core"
	"keylock/host/config"
	"keylock/host/logger"
	"keylock/host/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read key presses from stdin and drive the simulated lock.",
	Long: `Each input line is one batch of simultaneous key presses, for example
"1" or "4 7". Lines are entered as they are read; '#' starts a comment.
The display and the servo are printed whenever they change. After the
input ends the simulator waits for a pending relock, then exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		var (
			settings *config.Config
			err      error
		)
		if cmd.Flags().Changed("config") {
			settings, err = config.Load(configPath)
		} else {
			settings, err = config.LoadOptional(configPath)
		}
		if err != nil {
			return err
		}
		if logLevel != "" {
			settings.LogLevel = logLevel
		}
		lvl, ok := logger.ParseLogLevel(settings.LogLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", settings.LogLevel)
		}
		logger.SetLevel(lvl)

		lockCfg, err := settings.Lock.Core()
		if err != nil {
			return err
		}
		return run(logger.WithName(ctx, "sim"), lockCfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func run(ctx context.Context, cfg core.Config, in io.Reader, out io.Writer) error {
	board, err := sim.NewBoard(cfg, sim.NewLogEvents(ctx), nil)
	if err != nil {
		return err
	}

	board.Display().OnChange(func(string) {
		fmt.Fprintf(out, "display %s\n", board.Display())
	})
	board.PWM().OnDuty(func(_ core.PWMPin, value core.PWMValue) {
		fmt.Fprintf(out, "servo   %d us\n", core.TimerToUS(uint32(value)))
	})

	presses := make(chan []core.Digit)
	go readPresses(ctx, in, presses)

	if err := board.Run(ctx, presses, sim.DefaultPollInterval); err != nil {
		return err
	}

	st := board.Status()
	fmt.Fprintf(out, "%s, %d attempts, %d granted, %d denied, %d dropped\n",
		st.Lock, st.Stats.Attempts, st.Stats.Grants, st.Stats.Denials, st.Stats.Dropped)
	return nil
}

// readPresses feeds one batch per input line and closes presses at EOF
func readPresses(ctx context.Context, in io.Reader, presses chan<- []core.Digit) {
	defer close(presses)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		batch, err := sim.ParsePresses(scanner.Text())
		if err != nil {
			logger.WarnKV(ctx, "line ignored", "error", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}
		select {
		case presses <- batch:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.ErrorKV(ctx, "read input", "error", err)
	}
}
