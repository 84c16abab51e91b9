package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/utils"
)

// Paginate applies offset and limit from params
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// TasksInOrganizations restricts a tasks query to the given organizations
func TasksInOrganizations(ids []uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.organization_id IN ?", ids)
	}
}

// OverdueTasks keeps unfinished tasks whose due date is before at
func OverdueTasks(at time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("tasks.status IN ?", []models.TaskStatus{models.TaskStatusPending, models.TaskStatusInProgress}).
			Where("tasks.due_date < ?", at)
	}
}
