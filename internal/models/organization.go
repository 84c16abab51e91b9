package models

import (
	"time"

	"github.com/yukikurage/daily-task-api/internal/utils"
	"gorm.io/gorm"
)

// Organization is a group that scopes tasks and who may rate them. Every user
// also owns a personal organization created at signup.
type Organization struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Members []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"-"`
	Tasks   []Task               `gorm:"foreignKey:OrganizationID" json:"-"`
}

// RotateInviteCode replaces the invite code, invalidating the previous one.
func (o *Organization) RotateInviteCode() error {
	code, err := utils.GenerateInviteCode()
	if err != nil {
		return err
	}
	o.InviteCode = code
	return nil
}
