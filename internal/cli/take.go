package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "take <medicine-id> [medicine-id...]",
		Short: "Mark doses taken, decrementing stock",
		Long:  "Mark doses taken. With several ids each is its own transaction; one failing does not roll back the others.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTake,
	}

	cmd.Flags().StringP("window", "w", "", "Time window (resolved from the schedule when omitted)")
	cmd.Flags().String("at", "", "Event time as RFC3339 (default: now)")
	cmd.Flags().IntP("quantity", "q", 0, "Pills taken (default: the medicine's pills-per-dose)")

	RootCmd.AddCommand(cmd)
}

func runTake(cmd *cobra.Command, args []string) {
	window, _ := cmd.Flags().GetString("window")
	atStr, _ := cmd.Flags().GetString("at")
	quantity, _ := cmd.Flags().GetInt("quantity")

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

	if len(args) > 1 {
		printJSON(t.BatchMark(cmd.Context(), args, at))
		return
	}

	res, err := t.MarkTaken(cmd.Context(), args[0], window, at, quantity)
	if err != nil {
		exitErr("take", err)
	}
	printJSON(res)
}
