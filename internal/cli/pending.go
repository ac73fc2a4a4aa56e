package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List doses currently due and unresolved",
		Run:   runPending,
	}

	cmd.Flags().String("at", "", "Check time as RFC3339 (default: now)")

	RootCmd.AddCommand(cmd)
}

func runPending(cmd *cobra.Command, args []string) {
	atStr, _ := cmd.Flags().GetString("at")

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

	doses, err := t.Pending(cmd.Context(), at)
	if err != nil {
		exitErr("pending", err)
	}

	printJSON(doses)
}
