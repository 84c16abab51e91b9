package repository

import (
	"context"

	"github.com/yukikurage/daily-task-api/internal/database"
	"github.com/yukikurage/daily-task-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.OrganizationIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.TasksInOrganizations(filter.OrganizationIDs))

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.AssignerID != nil {
		query = query.Where("tasks.assigner_id = ?", *filter.AssignerID)
	}
	if filter.OverdueAt != nil {
		query = query.Scopes(database.OverdueTasks(*filter.OverdueAt))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDueDate {
		listQuery = listQuery.Order("tasks.due_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	if filter.Pagination != nil {
		listQuery = listQuery.Scopes(database.Paginate(*filter.Pagination))
	}

	if err := listQuery.Preload("Assignee").Preload("Assigner").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListByAssignee returns every live task assigned to the user
func (r *GormTaskRepository) ListByAssignee(ctx context.Context, userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Where("assignee_id = ?", userID).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAssigneeIDs returns the distinct users holding at least one task,
// optionally within a single organization
func (r *GormTaskRepository) ListAssigneeIDs(ctx context.Context, organizationID *uint64) ([]uint64, error) {
	var ids []uint64
	query := r.db.WithContext(ctx).Model(&models.Task{})
	if organizationID != nil {
		query = query.Where("organization_id = ?", *organizationID)
	}

	if err := query.
		Distinct("assignee_id").
		Order("assignee_id ASC").
		Pluck("assignee_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Update saves the editable fields of a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).
		Model(task).
		Select("title", "description", "priority", "due_date").
		Updates(task).Error
}

// Transition persists lifecycle fields guarded by the previous status
func (r *GormTaskRepository) Transition(ctx context.Context, task *models.Task, from models.TaskStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", task.ID, from).
		Updates(map[string]interface{}{
			"status":          task.Status,
			"started_at":      task.StartedAt,
			"completed_at":    task.CompletedAt,
			"reviewed_at":     task.ReviewedAt,
			"rating":          task.Rating,
			"rating_feedback": task.RatingFeedback,
			"rated_by_id":     task.RatedByID,
			"user_notes":      task.UserNotes,
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrTaskStateChanged
	}

	return nil
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, id).Error
}
