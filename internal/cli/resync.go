package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ads-dashboard/internal/config"
	"github.com/ads-dashboard/internal/database"
	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/database/synclog"
	"github.com/ads-dashboard/internal/database/syncprogress"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/metasync"
	"github.com/ads-dashboard/internal/notify"
	"github.com/ads-dashboard/internal/syncer"
)

// ResyncCommand triages all projects and resyncs the stale ones from the
// command line, without going through the HTTP server.
type ResyncCommand struct {
	DatabasePath string
	ProjectID    uint
	DryRun       bool
}

// NewResyncCommand creates a new ResyncCommand
func NewResyncCommand() *ResyncCommand {
	return &ResyncCommand{}
}

// ParseFlags parses command line flags
func (cmd *ResyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("resync", flag.ExitOnError)

	var projectID uint64
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the dashboard database file")
	fs.Uint64Var(&projectID, "project", 0, "Resync a single project by ID (0 = triage all)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Only print the triage queue, do not dispatch")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s resync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Resync stale ad account projects against the sync executor.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s resync\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s resync -project 42\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s resync -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.ProjectID = uint(projectID)

	return nil
}

// Run executes the resync command
func (cmd *ResyncCommand) Run() error {
	cfg := config.NewConfig()
	if cfg.Executor.BaseURL == "" && !cmd.DryRun {
		return fmt.Errorf("EXECUTOR_BASE_URL is not set")
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	projectRepo := projects.NewRepository(db.DB)
	tracker := syncprogress.NewRepository(db.DB)
	logRepo := synclog.NewRepository(db.DB)

	executor := metasync.NewClient(cfg.Executor.BaseURL, cfg.Executor.Token, cfg.Executor.Timeout)
	orchestrator := syncer.NewOrchestrator(projectRepo, tracker, logRepo, executor, notify.NewLogNotifier(), syncer.Config{
		PacingDelay:     cfg.Resync.PacingDelay,
		DispatchTimeout: cfg.Resync.DispatchTimeout,
	})

	ctx := context.Background()

	var queue []entities.Project
	if cmd.ProjectID > 0 {
		project, err := projectRepo.GetByID(cmd.ProjectID)
		if err != nil {
			return fmt.Errorf("project %d: %w", cmd.ProjectID, err)
		}
		queue = []entities.Project{*project}
	} else {
		all, err := projectRepo.List(false)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		queue = orchestrator.TriageQueue(all, time.Now())
	}

	if len(queue) == 0 {
		fmt.Println("All projects are healthy, nothing to resync.")
		return nil
	}

	fmt.Printf("Triage queue (%d projects):\n", len(queue))
	for _, p := range queue {
		fmt.Printf("  - %d %s\n", p.ID, p.Name)
	}

	if cmd.DryRun {
		return nil
	}

	result, err := orchestrator.ResyncMany(ctx, queue)
	if err != nil {
		return fmt.Errorf("bulk resync: %w", err)
	}

	fmt.Printf("\nDone: %d succeeded, %d failed\n", len(result.Succeeded), len(result.Failed))
	for _, o := range result.Failed {
		fmt.Printf("  failed %d: %s\n", o.ProjectID, o.Error)
	}
	return nil
}
