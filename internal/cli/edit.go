package cli

import (
	"github.com/spf13/cobra"

	"github.com/calebsw/pilltrack/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "edit <medicine-id>",
		Short: "Update medicine fields (only the flags you set change)",
		Args:  cobra.ExactArgs(1),
		Run:   runEdit,
	}

	cmd.Flags().StringP("name", "n", "", "Medicine name")
	cmd.Flags().String("dosage", "", "Dosage description")
	cmd.Flags().Bool("with-food", false, "Take with food")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().Int("pills", 0, "Pills remaining")
	cmd.Flags().Int("per-dose", 0, "Pills per dose")
	cmd.Flags().Int("threshold", 0, "Low stock threshold")
	cmd.Flags().Bool("active", true, "Active flag")

	RootCmd.AddCommand(cmd)
}

func runEdit(cmd *cobra.Command, args []string) {
	var p store.MedicinePatch

	if cmd.Flags().Changed("name") {
		v, _ := cmd.Flags().GetString("name")
		p.Name = &v
	}
	if cmd.Flags().Changed("dosage") {
		v, _ := cmd.Flags().GetString("dosage")
		p.Dosage = &v
	}
	if cmd.Flags().Changed("with-food") {
		v, _ := cmd.Flags().GetBool("with-food")
		p.WithFood = &v
	}
	if cmd.Flags().Changed("notes") {
		v, _ := cmd.Flags().GetString("notes")
		p.Notes = &v
	}
	if cmd.Flags().Changed("pills") {
		v, _ := cmd.Flags().GetInt("pills")
		p.PillsRemaining = &v
	}
	if cmd.Flags().Changed("per-dose") {
		v, _ := cmd.Flags().GetInt("per-dose")
		p.PillsPerDose = &v
	}
	if cmd.Flags().Changed("threshold") {
		v, _ := cmd.Flags().GetInt("threshold")
		p.LowStockThreshold = &v
	}
	if cmd.Flags().Changed("active") {
		v, _ := cmd.Flags().GetBool("active")
		p.Active = &v
	}

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	med, err := t.PatchMedicine(cmd.Context(), args[0], p)
	if err != nil {
		exitErr("edit", err)
	}

	printJSON(med)
}
