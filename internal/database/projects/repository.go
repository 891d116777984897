package projects

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ads-dashboard/internal/entities"
)

// Repository handles project persistence. Display code is read-only with
// respect to these entities; LastSyncAt, WebhookStatus and SyncProgress are
// mutated only through the tracker and orchestrator.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(project *entities.Project) error {
	if project.Name == "" {
		return entities.ErrInvalidArgument
	}
	if project.WebhookStatus == "" {
		project.WebhookStatus = entities.WebhookStatusIdle
	}
	return r.db.Create(project).Error
}

func (r *Repository) GetByID(id uint) (*entities.Project, error) {
	var project entities.Project
	err := r.db.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns all projects, excluding archived ones unless requested.
func (r *Repository) List(includeArchived bool) ([]entities.Project, error) {
	var projects []entities.Project
	query := r.db.Order("name ASC")
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}
	err := query.Find(&projects).Error
	return projects, err
}

// UpdateLastSync stamps a successful sync and returns the project to idle.
func (r *Repository) UpdateLastSync(id uint, at time.Time) error {
	return r.updateChecked(id, map[string]any{
		"last_sync_at":   at,
		"webhook_status": entities.WebhookStatusIdle,
		"updated_at":     time.Now(),
	})
}

func (r *Repository) SetWebhookStatus(id uint, status entities.WebhookStatus) error {
	return r.updateChecked(id, map[string]any{
		"webhook_status": status,
		"updated_at":     time.Now(),
	})
}

func (r *Repository) Archive(id uint) error {
	return r.updateChecked(id, map[string]any{
		"archived":   true,
		"updated_at": time.Now(),
	})
}

func (r *Repository) updateChecked(id uint, updates map[string]any) error {
	result := r.db.Model(&entities.Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrNotFound
	}
	return nil
}
