package services

import (
	"github.com/yukikurage/daily-task-api/internal/models"
)

func (suite *ServiceTestSuite) TestCreateOrganization() {
	owner := suite.createUser("owner")

	_, err := suite.orgs.CreateOrganization(suite.ctx, CreateOrganizationInput{Name: "   ", OwnerID: owner.ID})
	suite.ErrorIs(err, ErrInvalidOrganizationName)

	org, err := suite.orgs.CreateOrganization(suite.ctx, CreateOrganizationInput{Name: " Home ", OwnerID: owner.ID})
	suite.Require().NoError(err)
	suite.Equal("Home", org.Name)
	suite.NotEmpty(org.InviteCode)

	member, err := suite.store.Organizations().FindMember(suite.ctx, org.ID, owner.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RoleOwner, member.Role)
}

func (suite *ServiceTestSuite) TestJoinOrganizationByInvite() {
	org := suite.createOrganization("club")
	user := suite.createUser("joiner")

	_, err := suite.orgs.JoinOrganizationByInvite(suite.ctx, user.ID, "nope")
	suite.ErrorIs(err, ErrInvalidInviteCode)

	joined, err := suite.orgs.JoinOrganizationByInvite(suite.ctx, user.ID, org.InviteCode)
	suite.Require().NoError(err)
	suite.Equal(org.ID, joined.ID)

	_, err = suite.orgs.JoinOrganizationByInvite(suite.ctx, user.ID, org.InviteCode)
	suite.ErrorIs(err, ErrAlreadyOrganizationMember)
}

func (suite *ServiceTestSuite) TestSetMemberRole() {
	org, reviewer, worker := suite.team()

	suite.ErrorIs(suite.orgs.SetMemberRole(suite.ctx, org.ID, reviewer.ID, worker.ID, "boss"), ErrInvalidRole)
	suite.ErrorIs(suite.orgs.SetMemberRole(suite.ctx, org.ID, reviewer.ID, reviewer.ID, models.RoleMember), ErrCannotChangeOwnRole)
	suite.ErrorIs(suite.orgs.SetMemberRole(suite.ctx, org.ID, reviewer.ID, 999, models.RoleReviewer), ErrOrganizationMemberNotFound)

	suite.Require().NoError(suite.orgs.SetMemberRole(suite.ctx, org.ID, reviewer.ID, worker.ID, models.RoleReviewer))

	member, err := suite.store.Organizations().FindMember(suite.ctx, org.ID, worker.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RoleReviewer, member.Role)

	// a promoted reviewer can rate
	task := suite.doneTask(org, reviewer, reviewer)
	_, err = suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: worker.ID, Rating: 4})
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestRemoveMember() {
	org, reviewer, worker := suite.team()

	suite.ErrorIs(suite.orgs.RemoveMember(suite.ctx, org.ID, reviewer.ID, reviewer.ID), ErrCannotRemoveYourself)
	suite.Require().NoError(suite.orgs.RemoveMember(suite.ctx, org.ID, reviewer.ID, worker.ID))
	suite.ErrorIs(suite.orgs.RemoveMember(suite.ctx, org.ID, reviewer.ID, worker.ID), ErrOrganizationMemberNotFound)
}

func (suite *ServiceTestSuite) TestDeleteOrganization_RefreshesProgress() {
	org, reviewer, worker := suite.team()
	suite.seedRated(org, reviewer, worker, 2, 5)

	before, err := suite.progress.GetProgress(suite.ctx, worker.ID, false)
	suite.Require().NoError(err)
	suite.Equal(2, before.TotalTasks)

	suite.Require().NoError(suite.orgs.DeleteOrganization(suite.ctx, org.ID))
	suite.ErrorIs(suite.orgs.DeleteOrganization(suite.ctx, org.ID), ErrOrganizationNotFound)

	after, err := suite.progress.GetProgress(suite.ctx, worker.ID, false)
	suite.Require().NoError(err)
	suite.Equal(0, after.TotalTasks)
	suite.Equal(0, after.TotalRatedTasks)
}

func (suite *ServiceTestSuite) TestRegenerateInviteCode() {
	org := suite.createOrganization("club")

	updated, err := suite.orgs.RegenerateInviteCode(suite.ctx, org.ID)
	suite.Require().NoError(err)
	suite.NotEqual(org.InviteCode, updated.InviteCode)

	_, err = suite.orgs.RegenerateInviteCode(suite.ctx, 999)
	suite.ErrorIs(err, ErrOrganizationNotFound)
}
