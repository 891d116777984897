package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ads-dashboard/internal/config"
	"github.com/ads-dashboard/internal/database"
	"github.com/ads-dashboard/internal/database/syncprogress"
)

// BackfillCommand starts a chunked historical backfill for a project.
type BackfillCommand struct {
	DatabasePath string
	ProjectID    uint
	From         string
	To           string
	Chunks       int
}

// NewBackfillCommand creates a new BackfillCommand
func NewBackfillCommand() *BackfillCommand {
	return &BackfillCommand{}
}

// ParseFlags parses command line flags
func (cmd *BackfillCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)

	var projectID uint64
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the dashboard database file")
	fs.Uint64Var(&projectID, "project", 0, "Project ID to backfill (required)")
	fs.StringVar(&cmd.From, "from", "", "Period start, YYYY-MM-DD (required)")
	fs.StringVar(&cmd.To, "to", "", "Period end, YYYY-MM-DD (required)")
	fs.IntVar(&cmd.Chunks, "chunks", 0, "Number of chunks to split the period into (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s backfill [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a resumable chunked backfill record for a project.\n")
		fmt.Fprintf(os.Stderr, "The record starts pending; the executor claims and advances it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s backfill -project 42 -from 2026-01-01 -to 2026-03-31 -chunks 3\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.ProjectID = uint(projectID)

	if cmd.ProjectID == 0 || cmd.From == "" || cmd.To == "" || cmd.Chunks == 0 {
		fs.Usage()
		return fmt.Errorf("project, from, to and chunks are all required")
	}
	return nil
}

// Run executes the backfill command
func (cmd *BackfillCommand) Run() error {
	periodStart, err := time.Parse("2006-01-02", cmd.From)
	if err != nil {
		return fmt.Errorf("invalid -from date: %w", err)
	}
	periodEnd, err := time.Parse("2006-01-02", cmd.To)
	if err != nil {
		return fmt.Errorf("invalid -to date: %w", err)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tracker := syncprogress.NewRepository(db.DB)
	record, err := tracker.StartBackfill(cmd.ProjectID, periodStart, periodEnd, cmd.Chunks)
	if err != nil {
		return fmt.Errorf("failed to start backfill: %w", err)
	}

	fmt.Printf("Backfill %d created for project %d: %s to %s in %d chunks\n",
		record.ID, cmd.ProjectID, cmd.From, cmd.To, cmd.Chunks)
	return nil
}
