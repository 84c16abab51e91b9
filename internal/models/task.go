package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusComplete   TaskStatus = "COMPLETE"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusComplete:
		return true
	}
	return false
}

// IsOpen reports whether the task still waits on its assignee.
func (s TaskStatus) IsOpen() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	AssigneeID     uint64         `gorm:"not null;index" json:"assignee_id"`
	AssignerID     uint64         `gorm:"not null;index" json:"assigner_id"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Priority       TaskPriority   `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	DueDate        time.Time      `gorm:"not null;index" json:"due_date"`
	StartedAt      *time.Time     `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
	ReviewedAt     *time.Time     `json:"reviewed_at"`
	Rating         *int           `json:"rating"`
	RatingFeedback string         `gorm:"type:text" json:"rating_feedback"`
	RatedByID      *uint64        `json:"rated_by_id"`
	UserNotes      string         `gorm:"type:text" json:"user_notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Assignee     User         `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Assigner     User         `gorm:"foreignKey:AssignerID" json:"assigner,omitempty"`
	RatedBy      *User        `gorm:"foreignKey:RatedByID" json:"rated_by,omitempty"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
