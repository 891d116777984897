// Command generate_demo creates a demo database with sample ad account
// projects in every health state, plus backfill, ledger and sync log history.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/ads-dashboard/internal/database"
	"github.com/ads-dashboard/internal/database/monthly"
	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/database/syncprogress"
	"github.com/ads-dashboard/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	projectRepo := projects.NewRepository(db.DB)
	tracker := syncprogress.NewRepository(db.DB)
	ledger := monthly.NewRepository(db.DB)

	created := createProjects(projectRepo)

	for _, seeded := range created {
		seedSyncLog(db.DB, seeded)
	}

	seedBackfill(tracker, created)
	seedLedger(ledger, created)

	log.Println("Demo database generated successfully!")
}

// ProjectConfig describes one demo project and how stale its data should be.
type ProjectConfig struct {
	Name          string
	AdAccountID   string
	LastSyncAgo   time.Duration
	NeverSynced   bool
	Archived      bool
	LogDays       int
	ErrorsPerWeek int

	// WithBackfill leaves a mid-flight chunked backfill on the project.
	WithBackfill bool
	// LedgerMonths schedules and completes that many recent calendar months.
	LedgerMonths int
}

type seededProject struct {
	Project entities.Project
	Config  ProjectConfig
}

func demoProjects() []ProjectConfig {
	return []ProjectConfig{
		// Healthy, syncs every few hours.
		{Name: "Northwind Outdoor", AdAccountID: "act_1029384756", LastSyncAgo: 3 * time.Hour, LogDays: 14, ErrorsPerWeek: 1, LedgerMonths: 6},
		{Name: "Blue Harbor Coffee", AdAccountID: "act_5647382910", LastSyncAgo: 11 * time.Hour, LogDays: 14, LedgerMonths: 3},

		// Warning: last sync slipped past a day.
		{Name: "Cascade Fitness", AdAccountID: "act_1122334455", LastSyncAgo: 30 * time.Hour, LogDays: 10, ErrorsPerWeek: 3},

		// Critical: stale for more than two days.
		{Name: "Juniper & Sage", AdAccountID: "act_9988776655", LastSyncAgo: 70 * time.Hour, LogDays: 7, ErrorsPerWeek: 6},

		// Connected but never synced, with a historical backfill underway.
		{Name: "Atlas Legal Group", AdAccountID: "act_4433221100", NeverSynced: true, WithBackfill: true},

		// Archived, excluded from dashboards and triage.
		{Name: "Sunset Ventures (closed)", AdAccountID: "act_0000000001", LastSyncAgo: 200 * time.Hour, Archived: true, LogDays: 3},
	}
}

func createProjects(repo *projects.Repository) []seededProject {
	now := time.Now()
	var created []seededProject

	for _, cfg := range demoProjects() {
		project := entities.Project{
			Name:        cfg.Name,
			AdAccountID: cfg.AdAccountID,
			Archived:    cfg.Archived,
		}
		if !cfg.NeverSynced {
			at := now.Add(-cfg.LastSyncAgo)
			project.LastSyncAt = &at
		}

		if err := repo.Create(&project); err != nil {
			log.Printf("Failed to create project %s: %v", cfg.Name, err)
			continue
		}
		log.Printf("Created: %s (%s)", project.Name, project.AdAccountID)
		created = append(created, seededProject{Project: project, Config: cfg})
	}
	return created
}

// seedSyncLog backdates a plausible attempt history, a few syncs per day with
// the configured weekly error budget sprinkled in. Entries are inserted
// directly because the repository only appends at the current time.
func seedSyncLog(db *gorm.DB, seeded seededProject) {
	cfg := seeded.Config
	if cfg.LogDays == 0 {
		return
	}

	now := time.Now()
	errorEvery := 0
	if cfg.ErrorsPerWeek > 0 {
		errorEvery = (cfg.LogDays*4)/cfg.ErrorsPerWeek + 1
	}

	attempt := 0
	for day := cfg.LogDays - 1; day >= 0; day-- {
		for n := 0; n < 3+rand.Intn(3); n++ {
			attempt++
			createdAt := now.AddDate(0, 0, -day).
				Add(-time.Duration(rand.Intn(20)) * time.Hour)

			status := entities.SyncLogSuccess
			meta := entities.SyncLogMeta{
				Type:    "resync",
				Records: 50 + rand.Intn(400),
				Elapsed: fmt.Sprintf("%ds", 2+rand.Intn(40)),
			}
			if errorEvery > 0 && attempt%errorEvery == 0 {
				status = entities.SyncLogError
				meta.Records = 0
				meta.Error = "timeout"
			}

			entry := entities.SyncLogEntry{
				ProjectID: seeded.Project.ID,
				Status:    status,
				Message:   meta.Encode(),
				CreatedAt: createdAt,
			}
			if err := db.Create(&entry).Error; err != nil {
				log.Printf("Failed to seed sync log for %s: %v", seeded.Project.Name, err)
				return
			}
		}
	}
	log.Printf("Seeded %d sync log entries for %s", attempt, seeded.Project.Name)
}

// seedBackfill leaves one project with a three-chunk backfill stopped halfway.
func seedBackfill(tracker *syncprogress.Repository, created []seededProject) {
	for _, seeded := range created {
		if !seeded.Config.WithBackfill {
			continue
		}

		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

		record, err := tracker.StartBackfill(seeded.Project.ID, start, end, 3)
		if err != nil {
			log.Printf("Failed to seed backfill for %s: %v", seeded.Project.Name, err)
			continue
		}
		if err := tracker.AdvanceChunk(record.ID, 240); err != nil {
			log.Printf("Failed to advance seeded backfill for %s: %v", seeded.Project.Name, err)
			continue
		}
		log.Printf("Seeded mid-flight backfill for %s", seeded.Project.Name)
	}
}

// seedLedger schedules and completes recent calendar months, leaving the most
// recent scheduled month pending so the summary shows partial progress.
func seedLedger(ledger *monthly.Repository, created []seededProject) {
	now := time.Now()

	for _, seeded := range created {
		months := seeded.Config.LedgerMonths
		if months == 0 {
			continue
		}

		for i := months; i >= 1; i-- {
			at := now.AddDate(0, -i, 0)
			record, err := ledger.ScheduleMonth(seeded.Project.ID, at.Year(), int(at.Month()))
			if err != nil {
				log.Printf("Failed to schedule month for %s: %v", seeded.Project.Name, err)
				continue
			}
			if i == 1 {
				continue // leave the newest month pending
			}
			if err := ledger.MarkCompleted(record.ID, 500+rand.Intn(3000)); err != nil {
				log.Printf("Failed to complete month for %s: %v", seeded.Project.Name, err)
			}
		}
		log.Printf("Seeded %d ledger months for %s", months, seeded.Project.Name)
	}
}
