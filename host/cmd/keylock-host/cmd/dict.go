package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"keylock/host/device"
)

var (
	// rawDict prints the inflated JSON instead of the summary.
	rawDict bool

	dictCmd = &cobra.Command{
		Use:   "dict",
		Short: "Download and print the data dictionary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			dev, err := connect(ctx)
			if err != nil {
				return err
			}
			defer dev.Close()

			out := cmd.OutOrStdout()
			if rawDict {
				_, err := fmt.Fprintf(out, "%s\n", dev.RawDictionary())
				return err
			}
			printDictionary(out, dev.Dictionary())
			return nil
		},
	}
)

func init() {
	dictCmd.Flags().BoolVar(&rawDict, "raw", false, "print the dictionary JSON")
}

func printDictionary(w io.Writer, dict *device.Dictionary) {
	fmt.Fprintf(w, "version: %s (%s)\n", dict.Version, dict.BuildVersions)

	fmt.Fprintln(w, "config:")
	names := make([]string, 0, len(dict.Config))
	for name := range dict.Config {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, _ := dict.ConfigString(name)
		fmt.Fprintf(w, "  %s = %s\n", name, v)
	}

	printMessages(w, "commands", dict.Commands)
	printMessages(w, "responses", dict.Responses)
}

func printMessages(w io.Writer, title string, msgs map[string]int) {
	sigs := make([]string, 0, len(msgs))
	for sig := range msgs {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return msgs[sigs[i]] < msgs[sigs[j]] })

	fmt.Fprintf(w, "%s (%d):\n", title, len(sigs))
	for _, sig := range sigs {
		fmt.Fprintf(w, "  [%d] %s\n", msgs[sig], sig)
	}
}
