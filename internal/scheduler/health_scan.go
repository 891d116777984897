package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ads-dashboard/internal/config"
	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/syncer"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// HealthScanScheduler periodically classifies all projects and bulk-resyncs
// the ones needing attention.
type HealthScanScheduler struct {
	cfg          config.HealthScan
	projectRepo  *projects.Repository
	orchestrator *syncer.Orchestrator

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc
}

// NewHealthScanScheduler creates a new scheduler instance.
func NewHealthScanScheduler(cfg config.HealthScan, projectRepo *projects.Repository, orchestrator *syncer.Orchestrator) *HealthScanScheduler {
	return &HealthScanScheduler{
		cfg:          cfg,
		projectRepo:  projectRepo,
		orchestrator: orchestrator,
		cron:         cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler if the health scan is enabled.
func (s *HealthScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("Health scan scheduler: disabled")
		return nil
	}

	if _, err := cronParser.Parse(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule health scan: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Health scan scheduler: started with schedule '%s'", s.cfg.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan to finish.
func (s *HealthScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	// Release the watcher goroutine started in Start.
	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Health scan scheduler: stopped")
}

// RunNow triggers an immediate scan.
func (s *HealthScanScheduler) RunNow() {
	go s.runScan()
}

// IsRunning returns whether the scheduler is active.
func (s *HealthScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsScanning returns whether a scan is currently in progress.
func (s *HealthScanScheduler) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isScanning
}

// GetNextRunTime returns when the next scan will occur.
func (s *HealthScanScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runScan triages all non-archived projects and resyncs the stale ones.
func (s *HealthScanScheduler) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Health scan: skipped (already scanning)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	all, err := s.projectRepo.List(false)
	if err != nil {
		log.Printf("Health scan: failed to list projects: %v", err)
		return
	}

	queue := s.orchestrator.TriageQueue(all, time.Now())
	if len(queue) == 0 {
		log.Printf("Health scan: all %d projects healthy", len(all))
		return
	}

	log.Printf("Health scan: %d of %d projects need attention, starting bulk resync", len(queue), len(all))
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := s.orchestrator.ResyncMany(ctx, queue)
	if err != nil {
		log.Printf("Health scan: bulk resync aborted: %v", err)
		return
	}

	log.Printf("Health scan: finished in %v (%d succeeded, %d failed)",
		time.Since(startTime).Round(time.Millisecond), len(result.Succeeded), len(result.Failed))
}
