package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <medicine-id>",
		Short: "Show one medicine with its schedule",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	med, err := t.GetMedicine(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	printJSON(med)
}
