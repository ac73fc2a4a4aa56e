package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/calebsw/pilltrack/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "schedule <medicine-id>",
		Short: "Replace a medicine's schedule",
		Long:  "Replace a medicine's schedule wholesale. Entries are read as a JSON array from the positional arg or stdin.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSchedule,
	}

	RootCmd.AddCommand(cmd)
}

func runSchedule(cmd *cobra.Command, args []string) {
	var raw []byte
	if len(args) > 1 {
		raw = []byte(args[1])
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			raw = b
		}
	}
	if len(raw) == 0 {
		exitErr("schedule", fmt.Errorf(`entries required (arg or stdin), e.g. [{"day":"mon","window":"morning","start":"06:00","end":"10:00"}]`))
	}

	var entries []model.ScheduleEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		exitErr("parse entries", err)
	}
	for i := range entries {
		if defaults, ok := model.WindowDefaults[entries[i].Window]; ok {
			if entries[i].Start == "" {
				entries[i].Start = defaults[0]
			}
			if entries[i].End == "" {
				entries[i].End = defaults[1]
			}
		}
	}

	s, t, err := openTracker()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := t.ReplaceSchedule(cmd.Context(), args[0], entries); err != nil {
		exitErr("schedule", err)
	}

	med, err := t.GetMedicine(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	printJSON(med)
}
