package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"keylock/host/device"
	"keylock/host/logger"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print lock events until interrupted.",
	Long: `Prints every event the lock reports: digits accepted or dropped,
denied attempts and the unlock cycle. Stops on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()

		dev, err := connect(ctx)
		if err != nil {
			return err
		}
		defer dev.Close()

		st, err := dev.Status(ctx)
		if err != nil {
			return err
		}
		logger.InfoKV(ctx, "monitoring", "device", settings.Serial.Device, "status", st.String())

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				if n := dev.Dropped(); n > 0 {
					logger.WarnKV(ctx, "events dropped", "count", n)
				}
				return nil
			case ev, ok := <-dev.Events():
				if !ok {
					return device.ErrClosed
				}
				fmt.Fprintf(out, "%s %s\n", ev.Received.Format("15:04:05.000"), device.Describe(ev))
			}
		}
	},
}
