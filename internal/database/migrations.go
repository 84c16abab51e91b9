package database

import (
	"fmt"

	"github.com/yukikurage/daily-task-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type index struct {
	model   interface{}
	name    string
	columns string
}

// compositeIndexes are the multi-column indexes AutoMigrate cannot infer
// from struct tags.
var compositeIndexes = []index{
	// progress recompute scans a user's tasks
	{&models.Task{}, "idx_tasks_assignee_status", "assignee_id, status"},
	// task listing within an organization
	{&models.Task{}, "idx_tasks_org_due_date", "organization_id, due_date"},
	{&models.OrganizationMember{}, "idx_org_members_user_id", "user_id"},
	// leaderboard ordering
	{&models.UserProgress{}, "idx_user_progress_rating_rate", "average_rating, completion_rate"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	for _, idx := range compositeIndexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to resolve table for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", stmt.Schema.Table))
	}

	return nil
}

// MigrateDatabase runs all database migrations
func MigrateDatabase(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
