package repository

import (
	"context"

	"github.com/yukikurage/daily-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProgressRepository is a GORM implementation of ProgressRepository
type GormProgressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &GormProgressRepository{db: db}
}

// FindByUserID returns the stored rollup for a user
func (r *GormProgressRepository) FindByUserID(ctx context.Context, userID uint64) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// Upsert inserts or fully replaces a rollup
func (r *GormProgressRepository) Upsert(ctx context.Context, progress *models.UserProgress) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(progress).Error
}

// Leaderboard returns rollups ordered by average rating then completion rate
func (r *GormProgressRepository) Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]models.UserProgress, error) {
	var rows []models.UserProgress

	query := r.db.WithContext(ctx).
		Model(&models.UserProgress{}).
		Where("user_progress.total_rated_tasks >= ?", filter.MinRatedTasks)

	if filter.OrganizationID != nil {
		query = query.
			Joins("JOIN organization_members ON organization_members.user_id = user_progress.user_id").
			Where("organization_members.organization_id = ?", *filter.OrganizationID)
	}

	// Unrated rows sort last on every driver; postgres puts NULLs first under DESC.
	query = query.
		Order("user_progress.average_rating IS NULL").
		Order("user_progress.average_rating DESC").
		Order("user_progress.completion_rate DESC").
		Order("user_progress.user_id ASC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Preload("User").Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
