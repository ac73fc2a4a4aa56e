package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show adherence for one date",
		Run:   runToday,
	}

	cmd.Flags().String("date", "", "Date YYYY-MM-DD (default: today)")
	cmd.Flags().StringP("medicine", "m", "", "Filter by medicine ID")

	RootCmd.AddCommand(cmd)
}

func runToday(cmd *cobra.Command, args []string) {
	dateStr, _ := cmd.Flags().GetString("date")
	medicine, _ := cmd.Flags().GetString("medicine")

	var date time.Time
	if dateStr != "" {
		var err error
		date, err = parseDate(dateStr)
		if err != nil {
			exitErr("parse --date", err)
		}
	}

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := t.DailyStats(cmd.Context(), date, medicine)
	if err != nil {
		exitErr("today", err)
	}

	printJSON(stats)
}
