package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/utils"
)

// ErrTaskStateChanged is returned by TaskRepository.Transition when the row no
// longer holds the status the caller read.
var ErrTaskStateChanged = errors.New("task repository: task status changed concurrently")

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListByAssignee returns every live task assigned to the user
	ListByAssignee(ctx context.Context, userID uint64) ([]models.Task, error)

	// ListAssigneeIDs returns the distinct users holding at least one task,
	// optionally within a single organization
	ListAssigneeIDs(ctx context.Context, organizationID *uint64) ([]uint64, error)

	// Update saves the editable fields of a task
	Update(ctx context.Context, task *models.Task) error

	// Transition persists the lifecycle fields of task only if the stored
	// status still equals from.
	Transition(ctx context.Context, task *models.Task, from models.TaskStatus) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OrganizationIDs []uint64
	Status          *models.TaskStatus
	AssigneeID      *uint64
	AssignerID      *uint64
	OverdueAt       *time.Time
	SortByDueDate   bool
	Pagination      *utils.PaginationParams
}

// ProgressRepository defines the interface for progress rollup access
type ProgressRepository interface {
	// FindByUserID returns the stored rollup for a user
	FindByUserID(ctx context.Context, userID uint64) (*models.UserProgress, error)

	// Upsert inserts or fully replaces a rollup
	Upsert(ctx context.Context, progress *models.UserProgress) error

	// Leaderboard returns rollups ordered by average rating then completion rate
	Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]models.UserProgress, error)
}

// LeaderboardFilter restricts and bounds a leaderboard query
type LeaderboardFilter struct {
	MinRatedTasks  int
	OrganizationID *uint64
	Limit          int
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithOwner creates an organization and its owner membership atomically
	CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(ctx context.Context, id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(ctx context.Context, code string) (*models.Organization, error)

	// Update updates an organization
	Update(ctx context.Context, org *models.Organization) error

	// Delete deletes an organization and all related data
	Delete(ctx context.Context, id uint64) error

	// AddMember adds a member to an organization
	AddMember(ctx context.Context, member *models.OrganizationMember) error

	// UpdateMemberRole changes the role of a member
	UpdateMemberRole(ctx context.Context, organizationID, userID uint64, role models.OrganizationRole) error

	// RemoveMember removes a member from an organization
	RemoveMember(ctx context.Context, organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(ctx context.Context, organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(ctx context.Context, userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(ctx context.Context, organizationID uint64) ([]models.OrganizationMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithPersonalOrganization creates a user, their personal organization,
	// and corresponding membership within a single transaction.
	CreateWithPersonalOrganization(ctx context.Context, user *models.User, org *models.Organization, member *models.OrganizationMember) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// SharesOrganization reports whether two users belong to a common organization
	SharesOrganization(ctx context.Context, a, b uint64) (bool, error)
}

// Store groups the repositories that take part in one unit of work.
type Store interface {
	Tasks() TaskRepository
	Progress() ProgressRepository
	Organizations() OrganizationRepository
	Users() UserRepository

	// Transaction runs fn against repositories bound to a single database
	// transaction, committing when fn returns nil.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
