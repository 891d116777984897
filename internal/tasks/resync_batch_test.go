package tasks

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ads-dashboard/internal/database/projects"
	"github.com/ads-dashboard/internal/database/synclog"
	"github.com/ads-dashboard/internal/database/syncprogress"
	"github.com/ads-dashboard/internal/entities"
	"github.com/ads-dashboard/internal/metasync"
	"github.com/ads-dashboard/internal/syncer"
)

func setupBatchFixture(t *testing.T, executor syncer.Executor) (*projects.Repository, *syncer.Orchestrator, func()) {
	dbPath := "./test_tasks_batch_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Project{}, &entities.SyncProgressRecord{}, &entities.SyncLogEntry{})
	require.NoError(t, err)

	projectRepo := projects.NewRepository(db)
	orchestrator := syncer.NewOrchestrator(
		projectRepo,
		syncprogress.NewRepository(db),
		synclog.NewRepository(db),
		executor,
		nil,
		syncer.Config{PacingDelay: time.Millisecond, DispatchTimeout: time.Second},
	)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return projectRepo, orchestrator, cleanup
}

func TestResyncBatchProcessor_TriageAll(t *testing.T) {
	executor := &scriptedExecutor{result: &metasync.Result{Success: true, RecordsImported: 1}}
	projectRepo, orchestrator, cleanup := setupBatchFixture(t, executor)
	defer cleanup()

	staleAt := time.Now().Add(-50 * time.Hour)
	freshAt := time.Now().Add(-time.Hour)
	require.NoError(t, projectRepo.Create(&entities.Project{Name: "stale", AdAccountID: "act_stale", LastSyncAt: &staleAt}))
	require.NoError(t, projectRepo.Create(&entities.Project{Name: "fresh", AdAccountID: "act_fresh", LastSyncAt: &freshAt}))

	processor := ResyncBatchProcessor(orchestrator, projectRepo)
	require.NoError(t, processor(context.Background(), ResyncBatchTask{}))

	// Only the stale project was dispatched.
	require.Len(t, executor.requests, 1)
	assert.Equal(t, "act_stale", executor.requests[0].AdAccountID)
}

func TestResyncBatchProcessor_ExplicitIDsSkipMissing(t *testing.T) {
	executor := &scriptedExecutor{result: &metasync.Result{Success: true, RecordsImported: 1}}
	projectRepo, orchestrator, cleanup := setupBatchFixture(t, executor)
	defer cleanup()

	project := &entities.Project{Name: "acme", AdAccountID: "act_acme"}
	require.NoError(t, projectRepo.Create(project))

	processor := ResyncBatchProcessor(orchestrator, projectRepo)
	require.NoError(t, processor(context.Background(), ResyncBatchTask{ProjectIDs: []uint{project.ID, 9999}}))

	require.Len(t, executor.requests, 1)
	assert.Equal(t, "act_acme", executor.requests[0].AdAccountID)
}

func TestResyncBatchProcessor_NothingToDo(t *testing.T) {
	executor := &scriptedExecutor{result: &metasync.Result{Success: true}}
	projectRepo, orchestrator, cleanup := setupBatchFixture(t, executor)
	defer cleanup()

	processor := ResyncBatchProcessor(orchestrator, projectRepo)
	require.NoError(t, processor(context.Background(), ResyncBatchTask{}))
	assert.Empty(t, executor.requests)
}
