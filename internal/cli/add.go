package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calebsw/pilltrack/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a medicine with its schedule",
		Run:   runAdd,
	}

	cmd.Flags().String("id", "", "Medicine ID (generated when omitted)")
	cmd.Flags().StringP("name", "n", "", "Medicine name (required)")
	cmd.Flags().String("dosage", "", "Dosage description, e.g. 500mg (required)")
	cmd.Flags().Bool("with-food", false, "Take with food")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().Int("pills", 0, "Pills remaining")
	cmd.Flags().Int("per-dose", 1, "Pills per dose")
	cmd.Flags().Int("threshold", 0, "Low stock threshold")
	cmd.Flags().String("days", "mon,tue,wed,thu,fri,sat,sun", "Comma-separated days")
	cmd.Flags().StringP("window", "w", "morning", "Time window: morning, afternoon, evening, night, anytime")
	cmd.Flags().String("start", "", "Window start HH:MM (default per window)")
	cmd.Flags().String("end", "", "Window end HH:MM (default per window)")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("dosage")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	dosage, _ := cmd.Flags().GetString("dosage")
	withFood, _ := cmd.Flags().GetBool("with-food")
	notes, _ := cmd.Flags().GetString("notes")
	pills, _ := cmd.Flags().GetInt("pills")
	perDose, _ := cmd.Flags().GetInt("per-dose")
	threshold, _ := cmd.Flags().GetInt("threshold")
	daysStr, _ := cmd.Flags().GetString("days")
	window, _ := cmd.Flags().GetString("window")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")

	if defaults, ok := model.WindowDefaults[window]; ok {
		if start == "" {
			start = defaults[0]
		}
		if end == "" {
			end = defaults[1]
		}
	}

	var schedule []model.ScheduleEntry
	for _, day := range strings.Split(daysStr, ",") {
		day = strings.TrimSpace(day)
		if day == "" {
			continue
		}
		schedule = append(schedule, model.ScheduleEntry{
			Day: day, Window: window, Start: start, End: end,
		})
	}
	if len(schedule) == 0 {
		exitErr("add", fmt.Errorf("at least one day is required"))
	}

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	med := &model.Medicine{
		ID:                id,
		Name:              name,
		Dosage:            dosage,
		WithFood:          withFood,
		Notes:             notes,
		PillsRemaining:    pills,
		PillsPerDose:      perDose,
		LowStockThreshold: threshold,
		Active:            true,
		Schedule:          schedule,
	}
	if err := t.AddMedicine(cmd.Context(), med); err != nil {
		exitErr("add", err)
	}

	printJSON(med)
}
