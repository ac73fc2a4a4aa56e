package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show adherence over a date range",
		Run:   runReport,
	}

	cmd.Flags().String("from", "", "Start date YYYY-MM-DD (default: 7 days ago)")
	cmd.Flags().String("to", "", "End date YYYY-MM-DD (default: today)")
	cmd.Flags().StringP("medicine", "m", "", "Filter by medicine ID")

	RootCmd.AddCommand(cmd)
}

func runReport(cmd *cobra.Command, args []string) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	medicine, _ := cmd.Flags().GetString("medicine")

	to := time.Now()
	if toStr != "" {
		var err error
		to, err = parseDate(toStr)
		if err != nil {
			exitErr("parse --to", err)
		}
	}
	from := to.AddDate(0, 0, -7)
	if fromStr != "" {
		var err error
		from, err = parseDate(fromStr)
		if err != nil {
			exitErr("parse --from", err)
		}
	}

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := t.PeriodStats(cmd.Context(), from, to, medicine)
	if err != nil {
		exitErr("report", err)
	}

	printJSON(stats)
}
