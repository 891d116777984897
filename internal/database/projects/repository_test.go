package projects

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ads-dashboard/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_projects_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Project{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestCreateProject(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	project := &entities.Project{Name: "Acme Ads", AdAccountID: "act_123"}
	require.NoError(t, repo.Create(project))

	assert.NotZero(t, project.ID)
	assert.Equal(t, entities.WebhookStatusIdle, project.WebhookStatus)
	assert.Nil(t, project.LastSyncAt)
}

func TestCreateProject_EmptyName(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Create(&entities.Project{AdAccountID: "act_123"})
	assert.ErrorIs(t, err, entities.ErrInvalidArgument)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(9999)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestList_ExcludesArchived(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.Project{Name: "Beta", AdAccountID: "act_2"}))
	require.NoError(t, repo.Create(&entities.Project{Name: "Alpha", AdAccountID: "act_1"}))

	old := &entities.Project{Name: "Old", AdAccountID: "act_3"}
	require.NoError(t, repo.Create(old))
	require.NoError(t, repo.Archive(old.ID))

	active, err := repo.List(false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alpha", active[0].Name)
	assert.Equal(t, "Beta", active[1].Name)

	all, err := repo.List(true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateLastSync(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	project := &entities.Project{Name: "Acme Ads", AdAccountID: "act_123"}
	require.NoError(t, repo.Create(project))
	require.NoError(t, repo.SetWebhookStatus(project.ID, entities.WebhookStatusSyncing))

	syncedAt := time.Now().Add(-time.Minute)
	require.NoError(t, repo.UpdateLastSync(project.ID, syncedAt))

	fresh, err := repo.GetByID(project.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.LastSyncAt)
	assert.WithinDuration(t, syncedAt, *fresh.LastSyncAt, time.Second)
	assert.Equal(t, entities.WebhookStatusIdle, fresh.WebhookStatus)
}

func TestUpdates_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	assert.ErrorIs(t, repo.UpdateLastSync(9999, time.Now()), entities.ErrNotFound)
	assert.ErrorIs(t, repo.SetWebhookStatus(9999, entities.WebhookStatusSyncing), entities.ErrNotFound)
	assert.ErrorIs(t, repo.Archive(9999), entities.ErrNotFound)
}
