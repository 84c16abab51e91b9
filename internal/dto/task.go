package dto

import (
	"time"

	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code,omitempty"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        time.Time           `json:"due_date"`
	IsOverdue      bool                `json:"is_overdue"`
	OrganizationID uint64              `json:"organization_id"`
	AssigneeID     uint64              `json:"assignee_id"`
	AssignerID     uint64              `json:"assigner_id"`
	StartedAt      *time.Time          `json:"started_at"`
	CompletedAt    *time.Time          `json:"completed_at"`
	ReviewedAt     *time.Time          `json:"reviewed_at"`
	Rating         *int                `json:"rating"`
	RatingFeedback string              `json:"rating_feedback,omitempty"`
	RatedByID      *uint64             `json:"rated_by_id"`
	UserNotes      string              `json:"user_notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Assignee       *UserDTO            `json:"assignee,omitempty"`
	Assigner       *UserDTO            `json:"assigner,omitempty"`
	RatedBy        *UserDTO            `json:"rated_by,omitempty"`
	Organization   *OrganizationDTO    `json:"organization,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// GeneratedTaskDTO is a task draft proposed by the assistant
type GeneratedTaskDTO struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization, includeInviteCode bool) OrganizationDTO {
	dto := OrganizationDTO{
		ID:   org.ID,
		Name: org.Name,
	}
	if includeInviteCode {
		dto.InviteCode = org.InviteCode
	}
	return dto
}

// ToTaskDTO converts a Task model to TaskDTO. now decides the overdue flag.
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		DueDate:        task.DueDate,
		IsOverdue:      task.Status.IsOpen() && task.DueDate.Before(now),
		OrganizationID: task.OrganizationID,
		AssigneeID:     task.AssigneeID,
		AssignerID:     task.AssignerID,
		StartedAt:      task.StartedAt,
		CompletedAt:    task.CompletedAt,
		ReviewedAt:     task.ReviewedAt,
		Rating:         task.Rating,
		RatingFeedback: task.RatingFeedback,
		RatedByID:      task.RatedByID,
		UserNotes:      task.UserNotes,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	// Include relations if preloaded
	if task.Assignee.ID != 0 {
		assignee := ToUserDTO(task.Assignee)
		dto.Assignee = &assignee
	}
	if task.Assigner.ID != 0 {
		assigner := ToUserDTO(task.Assigner)
		dto.Assigner = &assigner
	}
	if task.RatedBy != nil && task.RatedBy.ID != 0 {
		ratedBy := ToUserDTO(*task.RatedBy)
		dto.RatedBy = &ratedBy
	}
	if task.Organization.ID != 0 {
		org := ToOrganizationDTO(task.Organization, false)
		dto.Organization = &org
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64, now time.Time) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task, now)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
