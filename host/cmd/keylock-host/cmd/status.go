package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the lock state and attempt counters.",
	Args:  cobra.NoArgs,
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
		up, err := dev.Uptime(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "lock:     %s\n", st.Lock)
		fmt.Fprintf(out, "entry:    %s (%d entered)\n", st.State, st.Length)
		fmt.Fprintf(out, "attempts: %d (granted %d, denied %d)\n", st.Attempts, st.Grants, st.Denials)
		fmt.Fprintf(out, "dropped:  %d\n", st.Dropped)
		fmt.Fprintf(out, "uptime:   %s\n", up)
		return nil
	},
}
