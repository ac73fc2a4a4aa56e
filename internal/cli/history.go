package cli

import (
	"github.com/spf13/cobra"

	"github.com/calebsw/pilltrack/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show tracking history, newest first",
		Run:   runHistory,
	}

	cmd.Flags().StringP("medicine", "m", "", "Filter by medicine ID")
	cmd.Flags().String("from", "", "Start date YYYY-MM-DD")
	cmd.Flags().String("to", "", "End date YYYY-MM-DD")
	cmd.Flags().Bool("skipped", false, "Skipped doses only")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	medicine, _ := cmd.Flags().GetString("medicine")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	skipped, _ := cmd.Flags().GetBool("skipped")

	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := parseDate(d); err != nil {
			exitErr("parse date", err)
		}
	}

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	records, err := t.History(cmd.Context(), store.HistoryParams{
		MedicineID:  medicine,
		StartDate:   from,
		EndDate:     to,
		SkippedOnly: skipped,
	})
	if err != nil {
		exitErr("history", err)
	}

	printJSON(records)
}
