package handlers

import (
	"fmt"
	"net/http"

	apierrors "github.com/yukikurage/daily-task-api/internal/errors"
)

type orgDetailBody struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
	YourRole   string `json:"your_role"`
	Members    []struct {
		User struct {
			ID uint64 `json:"id"`
		} `json:"user"`
		Role string `json:"role"`
	} `json:"members"`
}

func (suite *HandlerTestSuite) TestCreateOrganization() {
	alice := suite.signup("alice")

	w := suite.request(http.MethodPost, "/api/organizations", map[string]string{"name": "  Morning crew  "}, alice)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var org struct {
		Name       string `json:"name"`
		InviteCode string `json:"invite_code"`
		Role       string `json:"role"`
	}
	suite.decode(w, &org)
	suite.Equal("Morning crew", org.Name)
	suite.NotEmpty(org.InviteCode)
	suite.Equal("owner", org.Role)

	w = suite.request(http.MethodPost, "/api/organizations", map[string]string{}, alice)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetOrganization_InviteCodeVisibility() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	path := fmt.Sprintf("/api/organizations/%d", orgID)

	w := suite.request(http.MethodGet, path, nil, owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail orgDetailBody
	suite.decode(w, &detail)
	suite.NotEmpty(detail.InviteCode)
	suite.Equal("owner", detail.YourRole)
	suite.Len(detail.Members, 2)

	w = suite.request(http.MethodGet, path, nil, member)
	suite.Require().Equal(http.StatusOK, w.Code)
	detail = orgDetailBody{}
	suite.decode(w, &detail)
	suite.Empty(detail.InviteCode)
	suite.Equal("member", detail.YourRole)
}

func (suite *HandlerTestSuite) TestGetOrganization_NonMemberNotFound() {
	owner := suite.signup("owner")
	stranger := suite.signup("stranger")
	orgID := suite.team(owner)

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/organizations/%d", orgID), nil, stranger)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apierrors.ErrCodeNotFound, suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestJoinOrganization() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	suite.team(owner, member)

	suite.Run("invalid code", func() {
		w := suite.request(http.MethodPost, "/api/organizations/join", map[string]string{"invite_code": "0000-0000-0000"}, member)
		suite.Equal(http.StatusNotFound, w.Code)
	})
}

func (suite *HandlerTestSuite) TestOwnerOnlyRoutes() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	path := fmt.Sprintf("/api/organizations/%d", orgID)

	w := suite.request(http.MethodPut, path, map[string]string{"name": "Renamed"}, member)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal(apierrors.ErrCodeInsufficientPermissions, suite.errorCode(w))

	w = suite.request(http.MethodPut, path, map[string]string{"name": "Renamed"}, owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var org struct {
		Name string `json:"name"`
	}
	suite.decode(w, &org)
	suite.Equal("Renamed", org.Name)

	w = suite.request(http.MethodPost, path+"/regenerate-code", nil, member)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateMemberRole() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	path := fmt.Sprintf("/api/organizations/%d/members/%d/role", orgID, member.ID)

	w := suite.request(http.MethodPut, path, map[string]string{"role": "reviewer"}, owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/organizations/%d", orgID), nil, member)
	var detail orgDetailBody
	suite.decode(w, &detail)
	suite.Equal("reviewer", detail.YourRole)

	suite.Run("unknown role", func() {
		w := suite.request(http.MethodPut, path, map[string]string{"role": "admin"}, owner)
		suite.Equal(http.StatusBadRequest, w.Code)
	})

	suite.Run("own role", func() {
		own := fmt.Sprintf("/api/organizations/%d/members/%d/role", orgID, owner.ID)
		w := suite.request(http.MethodPut, own, map[string]string{"role": "member"}, owner)
		suite.Equal(http.StatusBadRequest, w.Code)
	})
}

func (suite *HandlerTestSuite) TestRemoveMember() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)

	w := suite.request(http.MethodDelete, fmt.Sprintf("/api/organizations/%d/members/%d", orgID, member.ID), nil, owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/organizations/%d", orgID), nil, member)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteOrganization() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	suite.doneTask(owner, member, orgID, "Stretch")

	w := suite.request(http.MethodDelete, fmt.Sprintf("/api/organizations/%d", orgID), nil, owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/organizations/%d", orgID), nil, owner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/progress/me", nil, member)
	suite.Require().Equal(http.StatusOK, w.Code)
	var progress struct {
		TotalTasks int `json:"total_tasks"`
	}
	suite.decode(w, &progress)
	suite.Zero(progress.TotalTasks)
}
