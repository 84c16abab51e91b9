package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/daily-task-api/internal/models"
	"gorm.io/gorm"
)

// Signup failures, by the row that could not be written
var (
	ErrCreateUser               = errors.New("user repository: create user failed")
	ErrCreateOrganization       = errors.New("user repository: create organization failed")
	ErrCreateOrganizationMember = errors.New("user repository: create organization member failed")
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithPersonalOrganization writes the user, their personal organization
// and the owner membership in one transaction.
func (r *GormUserRepository) CreateWithPersonalOrganization(ctx context.Context, user *models.User, org *models.Organization, member *models.OrganizationMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOrganization, err)
		}

		member.OrganizationID = org.ID
		member.UserID = user.ID
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOrganizationMember, err)
		}
		return nil
	})
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SharesOrganization reports whether a and b are members of a common organization
func (r *GormUserRepository) SharesOrganization(ctx context.Context, a, b uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("organization_members AS ma").
		Joins("JOIN organization_members AS mb ON mb.organization_id = ma.organization_id").
		Where("ma.user_id = ? AND mb.user_id = ?", a, b).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
