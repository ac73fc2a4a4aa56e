package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List medicines",
		Run:   runList,
	}

	cmd.Flags().BoolP("all", "a", false, "Include inactive medicines")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	meds, err := t.ListMedicines(cmd.Context(), all)
	if err != nil {
		exitErr("list", err)
	}

	printJSON(meds)
}
