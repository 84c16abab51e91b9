package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/daily-task-api/internal/constants"
	"github.com/yukikurage/daily-task-api/internal/logger"
	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/repository"
	"github.com/yukikurage/daily-task-api/internal/utils"
	"github.com/yukikurage/daily-task-api/internal/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotOrganizationMember    = errors.New("user is not a member of the organization")
	ErrTaskNotFound             = errors.New("task not found")
	ErrNotTaskAssigner          = errors.New("only the assigner can perform this action")
	ErrNotTaskAssignee          = errors.New("only the assignee can perform this action")
	ErrNotReviewer              = errors.New("only organization owners and reviewers can rate tasks")
	ErrTitleRequired            = errors.New("title is required")
	ErrDueDateNotInFuture       = errors.New("due date must be in the future")
	ErrInvalidPriority          = errors.New("invalid priority")
	ErrInvalidStatus            = errors.New("invalid status")
	ErrInvalidTaskAssignee      = errors.New("assignee is not a member of the organization")
	ErrTaskAlreadyComplete      = errors.New("completed tasks cannot be edited")
	ErrTaskStateChanged         = errors.New("task was modified concurrently, reload and retry")
	ErrSystemActorNotConfigured = errors.New("SYSTEM_ACTOR_ID is not configured")
	ErrAIServiceNotConfigured   = errors.New("AI service is not configured")
	ErrAINoTasksGenerated       = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks           = errors.New("no valid tasks could be created from AI output")
)

// TaskGenerator turns free text into task drafts.
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// TaskService handles task business logic
type TaskService struct {
	store         repository.Store
	progress      *ProgressService
	generator     TaskGenerator
	systemActorID uint64
	log           *zap.Logger
	now           func() time.Time
}

// TaskServiceOptions carries optional collaborators of TaskService
type TaskServiceOptions struct {
	Generator TaskGenerator
	// SystemActorID is recorded as the assigner of imported tasks.
	SystemActorID uint64
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store, progress *ProgressService, log *zap.Logger, opts TaskServiceOptions) *TaskService {
	if log == nil {
		log = zap.NewNop()
	}

	return &TaskService{
		store:         store,
		progress:      progress,
		generator:     opts.Generator,
		systemActorID: opts.SystemActorID,
		log:           log,
		now:           time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID         uint64
	OrganizationID *uint64
	AssignedToMe   bool
	AssignedByMe   bool
	OverdueOnly    bool
	Status         *models.TaskStatus
	SortByDueDate  bool
	Pagination     utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title          string
	Description    string
	Priority       models.TaskPriority
	DueDate        time.Time
	OrganizationID uint64
	AssigneeID     uint64
	AssignerID     uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *models.TaskPriority
	DueDate     *time.Time
}

// RateTaskInput represents a reviewer's rating of a finished task
type RateTaskInput struct {
	TaskID   uint64
	RaterID  uint64
	Rating   int
	Feedback string
}

// ListTasks returns tasks accessible to a user based on the provided filters
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	orgIDs, err := s.resolveAccessibleOrganizationIDs(ctx, input.UserID, input.OrganizationID)
	if err != nil {
		return nil, 0, err
	}

	if len(orgIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	pagination := input.Pagination
	filter := repository.TaskFilter{
		OrganizationIDs: orgIDs,
		Status:          input.Status,
		SortByDueDate:   input.SortByDueDate,
		Pagination:      &pagination,
	}

	if input.AssignedToMe {
		filter.AssigneeID = &input.UserID
	}
	if input.AssignedByMe {
		filter.AssignerID = &input.UserID
	}
	if input.OverdueOnly {
		now := s.now()
		filter.OverdueAt = &now
	}

	tasks, total, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	return s.findTask(ctx, s.store, taskID, "Assignee", "Assigner", "RatedBy", "Organization")
}

// CreateTask validates and stores a new PENDING task
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}

	if err := s.ensureOrganizationMember(ctx, s.store, input.OrganizationID, input.AssignerID); err != nil {
		return nil, err
	}
	if err := s.ensureOrganizationMember(ctx, s.store, input.OrganizationID, input.AssigneeID); err != nil {
		if errors.Is(err, ErrNotOrganizationMember) {
			return nil, ErrInvalidTaskAssignee
		}
		return nil, err
	}

	task := newTask(input)
	if err := s.store.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logger.WithRequestID(ctx, s.log).Info("task created",
		zap.Uint64("task_id", task.ID),
		zap.Uint64("assignee_id", task.AssigneeID),
		zap.Uint64("assigner_id", task.AssignerID),
	)

	return s.GetTask(ctx, task.ID)
}

func (s *TaskService) validateCreate(input *CreateTaskInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return ErrTitleRequired
	}

	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return ErrInvalidPriority
	}

	if !input.DueDate.After(s.now()) {
		return ErrDueDateNotInFuture
	}

	return nil
}

func newTask(input CreateTaskInput) *models.Task {
	return &models.Task{
		Title:          input.Title,
		Description:    input.Description,
		Status:         models.TaskStatusPending,
		Priority:       input.Priority,
		DueDate:        input.DueDate,
		OrganizationID: input.OrganizationID,
		AssigneeID:     input.AssigneeID,
		AssignerID:     input.AssignerID,
	}
}

// UpdateTask lets the assigner edit the descriptive fields of an unfinished task
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}

	if task.AssignerID != actorID {
		return nil, ErrNotTaskAssigner
	}
	if task.Status == models.TaskStatusComplete {
		return nil, ErrTaskAlreadyComplete
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		if !input.DueDate.After(s.now()) {
			return nil, ErrDueDateNotInFuture
		}
		task.DueDate = *input.DueDate
	}

	if err := s.store.Tasks().Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(ctx, task.ID)
}

// DeleteTask soft deletes a task if the actor is the assigner and refreshes
// the assignee's progress
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uint64) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := s.findTask(ctx, tx, taskID)
		if err != nil {
			return err
		}

		if task.AssignerID != actorID {
			return ErrNotTaskAssigner
		}

		if err := tx.Tasks().Delete(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		if _, err := s.progress.OnTaskDeleted(ctx, tx, task); err != nil {
			return fmt.Errorf("failed to refresh progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.progress.invalidateLeaderboard(ctx)
	return nil
}

// StartTask moves a PENDING task to IN_PROGRESS
func (s *TaskService) StartTask(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	return s.assigneeTransition(ctx, taskID, actorID, func(task *models.Task, now time.Time) error {
		return workflow.Start(task, now)
	})
}

// MarkDone moves a PENDING or IN_PROGRESS task to DONE
func (s *TaskService) MarkDone(ctx context.Context, taskID, actorID uint64, notes string) (*models.Task, error) {
	return s.assigneeTransition(ctx, taskID, actorID, func(task *models.Task, now time.Time) error {
		return workflow.MarkDone(task, notes, now)
	})
}

func (s *TaskService) assigneeTransition(ctx context.Context, taskID, actorID uint64, apply func(*models.Task, time.Time) error) (*models.Task, error) {
	task, err := s.findTask(ctx, s.store, taskID)
	if err != nil {
		return nil, err
	}

	if task.AssigneeID != actorID {
		return nil, ErrNotTaskAssignee
	}

	from := task.Status
	if err := apply(task, s.now()); err != nil {
		return nil, err
	}

	if err := s.store.Tasks().Transition(ctx, task, from); err != nil {
		if errors.Is(err, repository.ErrTaskStateChanged) {
			return nil, ErrTaskStateChanged
		}
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	logger.WithRequestID(ctx, s.log).Info("task status changed",
		zap.Uint64("task_id", task.ID),
		zap.String("from", string(from)),
		zap.String("to", string(task.Status)),
	)

	return s.GetTask(ctx, task.ID)
}

// RateTask completes a DONE task with a rating and recomputes the assignee's
// progress in the same transaction. Any failure leaves both untouched.
func (s *TaskService) RateTask(ctx context.Context, input RateTaskInput) (*models.Task, error) {
	var rated *models.Task

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := s.findTask(ctx, tx, input.TaskID)
		if err != nil {
			return err
		}

		member, err := tx.Organizations().FindMember(ctx, task.OrganizationID, input.RaterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotReviewer
			}
			return fmt.Errorf("failed to verify organization membership: %w", err)
		}
		if !member.Role.CanReview() {
			return ErrNotReviewer
		}

		from := task.Status
		rating := workflow.Rating{Score: input.Rating, Feedback: input.Feedback, RaterID: input.RaterID}
		if err := workflow.MarkComplete(task, rating, s.now()); err != nil {
			return err
		}

		if err := tx.Tasks().Transition(ctx, task, from); err != nil {
			if errors.Is(err, repository.ErrTaskStateChanged) {
				return ErrTaskStateChanged
			}
			return fmt.Errorf("failed to save rating: %w", err)
		}

		if _, err := s.progress.OnTaskRated(ctx, tx, task); err != nil {
			return err
		}

		rated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.progress.invalidateLeaderboard(ctx)

	logger.WithRequestID(ctx, s.log).Info("task rated",
		zap.Uint64("task_id", rated.ID),
		zap.Uint64("assignee_id", rated.AssigneeID),
		zap.Uint64("rated_by_id", input.RaterID),
		zap.Int("rating", input.Rating),
	)

	return s.GetTask(ctx, rated.ID)
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string
}

// GenerateTaskDrafts uses AI to propose tasks from text. Drafts are never stored.
func (s *TaskService) GenerateTaskDrafts(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.generator == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.generator.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	now := s.now()
	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		if aiTask.DueDate != nil && !aiTask.DueDate.After(now) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// ImportTaskInput is one task of a batch import
type ImportTaskInput struct {
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Priority       models.TaskPriority `json:"priority"`
	DueDate        time.Time           `json:"due_date"`
	OrganizationID uint64              `json:"organization_id"`
	AssigneeID     uint64              `json:"assignee_id"`
}

// ImportTasks creates every task on behalf of the configured system actor.
// Either all tasks are created or none.
func (s *TaskService) ImportTasks(ctx context.Context, inputs []ImportTaskInput) ([]models.Task, error) {
	if s.systemActorID == 0 {
		return nil, ErrSystemActorNotConfigured
	}

	if _, err := s.store.Users().FindByID(ctx, s.systemActorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("system actor %d: %w", s.systemActorID, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to load system actor: %w", err)
	}

	created := make([]models.Task, 0, len(inputs))
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		for i, in := range inputs {
			input := CreateTaskInput{
				Title:          in.Title,
				Description:    in.Description,
				Priority:       in.Priority,
				DueDate:        in.DueDate,
				OrganizationID: in.OrganizationID,
				AssigneeID:     in.AssigneeID,
				AssignerID:     s.systemActorID,
			}
			if err := s.validateCreate(&input); err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			if err := s.ensureOrganizationMember(ctx, tx, input.OrganizationID, input.AssigneeID); err != nil {
				if errors.Is(err, ErrNotOrganizationMember) {
					err = ErrInvalidTaskAssignee
				}
				return fmt.Errorf("task %d: %w", i, err)
			}

			task := newTask(input)
			if err := tx.Tasks().Create(ctx, task); err != nil {
				return fmt.Errorf("task %d: failed to create task: %w", i, err)
			}
			created = append(created, *task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, s.log).Info("tasks imported",
		zap.Int("count", len(created)),
		zap.Uint64("assigner_id", s.systemActorID),
	)

	return created, nil
}

func (s *TaskService) findTask(ctx context.Context, store repository.Store, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := store.Tasks().FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// resolveAccessibleOrganizationIDs returns the organization IDs the user can access
func (s *TaskService) resolveAccessibleOrganizationIDs(ctx context.Context, userID uint64, organizationID *uint64) ([]uint64, error) {
	if organizationID != nil {
		if err := s.ensureOrganizationMember(ctx, s.store, *organizationID, userID); err != nil {
			return nil, err
		}
		return []uint64{*organizationID}, nil
	}

	memberships, err := s.store.Organizations().ListMembersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}

	orgIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrganizationID)
	}

	return orgIDs, nil
}

// ensureOrganizationMember verifies that a user belongs to an organization
func (s *TaskService) ensureOrganizationMember(ctx context.Context, store repository.Store, orgID, userID uint64) error {
	_, err := store.Organizations().FindMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOrganizationMember
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return nil
}
