// Package cli implements the pilltrack CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calebsw/pilltrack/internal/model"
	"github.com/calebsw/pilltrack/internal/store"
	"github.com/calebsw/pilltrack/internal/tracker"
)

var (
	dbPath      string
	verbose     bool
	clampStock  bool
	allowRemark bool
	slackMins   int
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "pilltrack",
	Short: "Medicine adherence tracking for a single user",
	Long:  "Tracks scheduled medicine doses, records taken/skipped events with stock counts, and reports adherence. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $PILLTRACK_DB or ~/.pilltrack/medicine.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging to stderr")
	RootCmd.PersistentFlags().BoolVar(&clampStock, "clamp-stock", false, "Floor stock at zero instead of rejecting underflow")
	RootCmd.PersistentFlags().BoolVar(&allowRemark, "allow-remark", false, "Let a dose event overwrite an already-resolved slot")
	RootCmd.PersistentFlags().IntVar(&slackMins, "slack", 0, "Reminder slack in minutes around schedule windows")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("PILLTRACK_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pilltrack", "medicine.db")
}

func newLogger() *zap.Logger {
	if verbose {
		l, _ := zap.NewDevelopment()
		return l
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, _ := cfg.Build()
	return l
}

func openStore() (*store.SQLiteStore, error) {
	return store.New(getDBPath(), newLogger())
}

func openTracker() (*store.SQLiteStore, *tracker.Tracker, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	t := tracker.New(s, tracker.Config{
		ClampStock:    clampStock,
		AllowRemark:   allowRemark,
		ReminderSlack: time.Duration(slackMins) * time.Minute,
	}, newLogger())
	return s, t, nil
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(model.DateFormat, s)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
