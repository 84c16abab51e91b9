package dto

import (
	"time"

	"github.com/yukikurage/daily-task-api/internal/models"
)

// OrganizationWithRoleDTO is one entry of the caller's organization list
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.OrganizationRole `json:"role"`
}

// OrganizationMemberDTO is a member as shown on the organization page
type OrganizationMemberDTO struct {
	User      UserDTO                 `json:"user"`
	Role      models.OrganizationRole `json:"role"`
	CanReview bool                    `json:"can_review"`
	JoinedAt  time.Time               `json:"joined_at"`
}

// OrganizationDetailDTO is an organization seen by one of its members. The
// invite code is only filled in for owners.
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members  []OrganizationMemberDTO `json:"members"`
	YourRole models.OrganizationRole `json:"your_role"`
}

func ToOrganizationWithRoleDTO(member models.OrganizationMember) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(member.Organization, member.Role == models.RoleOwner),
		Role:            member.Role,
	}
}

func ToOrganizationMemberDTO(member models.OrganizationMember) OrganizationMemberDTO {
	return OrganizationMemberDTO{
		User:      ToUserDTO(member.User),
		Role:      member.Role,
		CanReview: member.Role.CanReview(),
		JoinedAt:  member.JoinedAt,
	}
}

// ToOrganizationDetailDTO renders org for viewer
func ToOrganizationDetailDTO(org models.Organization, members []models.OrganizationMember, viewer models.OrganizationMember) OrganizationDetailDTO {
	out := OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org, viewer.Role == models.RoleOwner),
		Members:         make([]OrganizationMemberDTO, len(members)),
		YourRole:        viewer.Role,
	}
	for i, m := range members {
		out.Members[i] = ToOrganizationMemberDTO(m)
	}
	return out
}
