package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/daily-task-api/internal/logger"
	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrCannotChangeOwnRole        = errors.New("cannot change your own role")
	ErrInvalidRole                = errors.New("invalid role")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	store    repository.Store
	progress *ProgressService
	log      *zap.Logger
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(store repository.Store, progress *ProgressService, log *zap.Logger) *OrganizationService {
	if log == nil {
		log = zap.NewNop()
	}

	return &OrganizationService{
		store:    store,
		progress: progress,
		log:      log,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name    string
	OwnerID uint64
}

// CreateOrganization creates a new organization and assigns the owner.
func (s *OrganizationService) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	org := &models.Organization{Name: name}
	if err := org.RotateInviteCode(); err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	owner := &models.OrganizationMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}

	if err := s.store.Organizations().CreateWithOwner(ctx, org, owner); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// ListOrganizationsForUser returns organizations the user belongs to.
func (s *OrganizationService) ListOrganizationsForUser(ctx context.Context, userID uint64) ([]models.OrganizationMember, error) {
	memberships, err := s.store.Organizations().ListMembersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganizationWithMembers returns an organization and all of its members.
func (s *OrganizationService) GetOrganizationWithMembers(ctx context.Context, orgID uint64) (*models.Organization, []models.OrganizationMember, error) {
	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.store.Organizations().ListMembers(ctx, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganizationName updates an organization's name.
func (s *OrganizationService) UpdateOrganizationName(ctx context.Context, orgID uint64, name string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.store.Organizations().Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization removes an organization with its tasks, then refreshes
// the progress of everyone who held one of those tasks.
func (s *OrganizationService) DeleteOrganization(ctx context.Context, orgID uint64) error {
	if _, err := s.findOrganization(ctx, orgID); err != nil {
		return err
	}

	affected, err := s.store.Tasks().ListAssigneeIDs(ctx, &orgID)
	if err != nil {
		return fmt.Errorf("failed to list task assignees: %w", err)
	}

	if err := s.store.Organizations().Delete(ctx, orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	if err := s.progress.RecomputeUsers(ctx, affected); err != nil {
		logger.WithRequestID(ctx, s.log).Error("progress refresh after organization delete failed",
			zap.Uint64("organization_id", orgID),
			zap.Error(err),
		)
	}

	return nil
}

// JoinOrganizationByInvite adds a user to an organization via invite code.
func (s *OrganizationService) JoinOrganizationByInvite(ctx context.Context, userID uint64, inviteCode string) (*models.Organization, error) {
	org, err := s.store.Organizations().FindByInviteCode(ctx, strings.TrimSpace(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find organization by invite code: %w", err)
	}

	if _, err := s.store.Organizations().FindMember(ctx, org.ID, userID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		JoinedAt:       time.Now(),
	}

	if err := s.store.Organizations().AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member to organization: %w", err)
	}

	return org, nil
}

// RegenerateInviteCode generates a new invite code for the organization.
func (s *OrganizationService) RegenerateInviteCode(ctx context.Context, orgID uint64) (*models.Organization, error) {
	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := org.RotateInviteCode(); err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	if err := s.store.Organizations().Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return org, nil
}

// SetMemberRole changes the role of another member.
func (s *OrganizationService) SetMemberRole(ctx context.Context, orgID, actorID, targetID uint64, role models.OrganizationRole) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if targetID == actorID {
		return ErrCannotChangeOwnRole
	}

	if err := s.store.Organizations().UpdateMemberRole(ctx, orgID, targetID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to update member role: %w", err)
	}

	logger.WithRequestID(ctx, s.log).Info("member role changed",
		zap.Uint64("organization_id", orgID),
		zap.Uint64("user_id", targetID),
		zap.String("role", string(role)),
	)

	return nil
}

// RemoveMember removes a member from the organization.
func (s *OrganizationService) RemoveMember(ctx context.Context, orgID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.store.Organizations().FindMember(ctx, orgID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to find organization member: %w", err)
	}

	if err := s.store.Organizations().RemoveMember(ctx, orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (s *OrganizationService) findOrganization(ctx context.Context, orgID uint64) (*models.Organization, error) {
	org, err := s.store.Organizations().FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}
