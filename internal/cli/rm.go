package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <medicine-id>",
		Short: "Delete a medicine, its schedule and its tracking history",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := t.DeleteMedicine(cmd.Context(), args[0]); err != nil {
		exitErr("rm", err)
	}

	fmt.Printf("deleted %s\n", args[0])
}
