package dal

import (
	"context"
	"time"

	"dataroom/backend/go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectDAL provides data access methods for the project catalog.
type ProjectDAL struct {
	db *gorm.DB
}

// NewProjectDAL creates a new ProjectDAL.
func NewProjectDAL(db *gorm.DB) *ProjectDAL {
	return &ProjectDAL{db: db}
}

// AutoMigrate creates or updates the projects table.
func (dal *ProjectDAL) AutoMigrate() error {
	return dal.db.AutoMigrate(&models.Project{})
}

// Touch records that a project's collection exists and adjusts its document
// count by delta. The row is created on first use. The count is a running
// tally floored at zero; it is not reconciled against the vector store.
func (dal *ProjectDAL) Touch(ctx context.Context, projectID, collection string, delta int64) error {
	now := time.Now().UTC()
	project := &models.Project{
		ProjectID:  projectID,
		Collection: collection,
		Documents:  max(delta, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return dal.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"collection": collection,
			"documents":  gorm.Expr("GREATEST(documents + ?, 0)", delta),
			"updated_at": now,
		}),
	}).Create(project).Error
}

// ListProjects returns every catalogued project ordered by project id.
func (dal *ProjectDAL) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	result := dal.db.WithContext(ctx).Order("project_id").Find(&projects)
	if result.Error != nil {
		return nil, result.Error
	}
	return projects, nil
}
