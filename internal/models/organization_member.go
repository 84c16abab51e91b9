package models

import "time"

type OrganizationRole string

const (
	RoleOwner    OrganizationRole = "owner"
	RoleReviewer OrganizationRole = "reviewer"
	RoleMember   OrganizationRole = "member"
)

// Valid reports whether r is a known role.
func (r OrganizationRole) Valid() bool {
	switch r {
	case RoleOwner, RoleReviewer, RoleMember:
		return true
	}
	return false
}

// CanReview reports whether members with this role may rate tasks.
func (r OrganizationRole) CanReview() bool {
	return r == RoleOwner || r == RoleReviewer
}

type OrganizationMember struct {
	OrganizationID uint64           `gorm:"primarykey" json:"organization_id"`
	UserID         uint64           `gorm:"primarykey" json:"user_id"`
	Role           OrganizationRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt       time.Time        `json:"joined_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
