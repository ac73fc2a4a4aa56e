package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "lowstock",
		Short: "List medicines at or below their low stock threshold",
		Run:   runLowStock,
	}

	RootCmd.AddCommand(cmd)
}

func runLowStock(cmd *cobra.Command, args []string) {
	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	items, err := t.LowStock(cmd.Context())
	if err != nil {
		exitErr("lowstock", err)
	}

	printJSON(items)
}
