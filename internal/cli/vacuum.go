package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim space and rebuild query statistics",
		Run:   runVacuum,
	}

	RootCmd.AddCommand(cmd)
}

func runVacuum(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.Vacuum(cmd.Context()); err != nil {
		exitErr("vacuum", err)
	}

	fmt.Println("ok")
}
