package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "skip <medicine-id>",
		Short: "Mark a dose skipped with an optional reason",
		Args:  cobra.ExactArgs(1),
		Run:   runSkip,
	}

	cmd.Flags().StringP("window", "w", "", "Time window (resolved from the schedule when omitted)")
	cmd.Flags().String("at", "", "Event time as RFC3339 (default: now)")
	cmd.Flags().StringP("reason", "r", "", "Reason: Forgot, Side effects, Out of stock, Doctor advised, Other")

	RootCmd.AddCommand(cmd)
}

func runSkip(cmd *cobra.Command, args []string) {
	window, _ := cmd.Flags().GetString("window")
	atStr, _ := cmd.Flags().GetString("at")
	reason, _ := cmd.Flags().GetString("reason")

	var at time.Time
	if atStr != "" {
		var err error
		at, err = time.Parse(time.RFC3339, atStr)
		if err != nil {
			exitErr("parse --at", err)
		}
	}

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := t.MarkSkipped(cmd.Context(), args[0], window, at, reason)
	if err != nil {
		exitErr("skip", err)
	}
	printJSON(res)
}
