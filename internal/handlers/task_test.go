package handlers

import (
	"fmt"
	"net/http"
	"time"

	apierrors "github.com/yukikurage/daily-task-api/internal/errors"
	"github.com/yukikurage/daily-task-api/internal/models"
)

func (suite *HandlerTestSuite) progressRowCount() int64 {
	var n int64
	suite.Require().NoError(suite.db.Model(&models.UserProgress{}).Count(&n).Error)
	return n
}

func (suite *HandlerTestSuite) rate(as *testUser, taskID uint64, body interface{}) (int, taskBody, string) {
	w := suite.request(http.MethodPost, fmt.Sprintf("/api/tasks/%d/rate", taskID), body, as)
	if w.Code != http.StatusOK {
		return w.Code, taskBody{}, suite.errorCode(w)
	}
	var task taskBody
	suite.decode(w, &task)
	return w.Code, task, ""
}

func (suite *HandlerTestSuite) TestCreateTask() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	stranger := suite.signup("stranger")
	orgID := suite.team(owner, member)

	task := suite.createTask(owner, orgID, member.ID, "  Water the plants ")
	suite.Equal("Water the plants", task.Title)
	suite.Equal(string(models.TaskStatusPending), task.Status)
	suite.Equal(member.ID, task.AssigneeID)
	suite.Equal(owner.ID, task.AssignerID)

	suite.Run("assignee defaults to caller", func() {
		w := suite.request(http.MethodPost, "/api/tasks", map[string]interface{}{
			"title":           "Journal",
			"organization_id": orgID,
			"due_date":        time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}, member)
		suite.Require().Equal(http.StatusCreated, w.Code)
		var task taskBody
		suite.decode(w, &task)
		suite.Equal(member.ID, task.AssigneeID)
	})

	suite.Run("due date in the past", func() {
		w := suite.request(http.MethodPost, "/api/tasks", map[string]interface{}{
			"title":           "Late",
			"organization_id": orgID,
			"due_date":        time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		}, owner)
		suite.Equal(http.StatusBadRequest, w.Code)
	})

	suite.Run("assignee outside organization", func() {
		w := suite.request(http.MethodPost, "/api/tasks", map[string]interface{}{
			"title":           "Nope",
			"organization_id": orgID,
			"assignee_id":     stranger.ID,
			"due_date":        time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}, owner)
		suite.Equal(http.StatusBadRequest, w.Code)
	})

	suite.Run("caller outside organization", func() {
		w := suite.request(http.MethodPost, "/api/tasks", map[string]interface{}{
			"title":           "Nope",
			"organization_id": orgID,
			"due_date":        time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}, stranger)
		suite.Equal(http.StatusForbidden, w.Code)
	})
}

func (suite *HandlerTestSuite) TestGetTask_NonMemberNotFound() {
	owner := suite.signup("owner")
	stranger := suite.signup("stranger")
	orgID := suite.team(owner)
	task := suite.createTask(owner, orgID, owner.ID, "Private")

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, owner)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, stranger)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/abc", nil, owner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListTasks_Pagination() {
	owner := suite.signup("owner")
	orgID := suite.team(owner)
	for i := 0; i < 3; i++ {
		suite.createTask(owner, orgID, owner.ID, fmt.Sprintf("Task %d", i))
	}

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/tasks?organization_id=%d&limit=2", orgID), nil, owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var body struct {
		Tasks      []taskBody `json:"tasks"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	suite.decode(w, &body)
	suite.Len(body.Tasks, 2)
	suite.Equal(int64(3), body.Pagination.Total)
	suite.Equal(2, body.Pagination.TotalPages)

	w = suite.request(http.MethodGet, "/api/tasks?status=ARCHIVED", nil, owner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateAndDeleteTask_AssignerOnly() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	task := suite.createTask(owner, orgID, member.ID, "Read")
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodPatch, path, map[string]string{"title": "Read more"}, member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPatch, path, map[string]string{"title": "Read more"}, owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var updated taskBody
	suite.decode(w, &updated)
	suite.Equal("Read more", updated.Title)

	w = suite.request(http.MethodDelete, path, nil, member)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, path, nil, owner)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, path, nil, owner)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestLifecycle() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	task := suite.createTask(owner, orgID, member.ID, "Run 5k")

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/tasks/%d/start", task.ID), nil, owner)
	suite.Equal(http.StatusForbidden, w.Code, "only the assignee starts a task")

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/tasks/%d/start", task.ID), nil, member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &task)
	suite.Equal(string(models.TaskStatusInProgress), task.Status)

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/tasks/%d/start", task.ID), nil, member)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidOperation, suite.errorCode(w))

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/tasks/%d/done", task.ID), map[string]string{"notes": "felt good"}, member)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &task)
	suite.Equal(string(models.TaskStatusDone), task.Status)
	suite.Equal("felt good", task.UserNotes)

	code, rated, _ := suite.rate(owner, task.ID, map[string]interface{}{"rating": 5, "feedback": "great"})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(string(models.TaskStatusComplete), rated.Status)
	suite.Require().NotNil(rated.Rating)
	suite.Equal(5, *rated.Rating)
	suite.Require().NotNil(rated.RatedByID)
	suite.Equal(owner.ID, *rated.RatedByID)

	code, _, errCode := suite.rate(owner, task.ID, map[string]interface{}{"rating": 4})
	suite.Equal(http.StatusConflict, code, "a COMPLETE task cannot be rated again")
	suite.Equal(apierrors.ErrCodeInvalidOperation, errCode)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]string{"title": "x"}, owner)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestRateTask_PendingRejected() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	task := suite.createTask(owner, orgID, member.ID, "Meditate")

	code, _, errCode := suite.rate(owner, task.ID, map[string]interface{}{"rating": 5})
	suite.Equal(http.StatusConflict, code)
	suite.Equal(apierrors.ErrCodeInvalidOperation, errCode)

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, owner)
	suite.decode(w, &task)
	suite.Equal(string(models.TaskStatusPending), task.Status)
	suite.Nil(task.Rating)
	suite.Zero(suite.progressRowCount(), "a rejected rating must not write progress")
}

func (suite *HandlerTestSuite) TestRateTask_InvalidRating() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	orgID := suite.team(owner, member)
	task := suite.doneTask(owner, member, orgID, "Stretch")

	for _, rating := range []int{0, 6, -1} {
		code, _, errCode := suite.rate(owner, task.ID, map[string]interface{}{"rating": rating})
		suite.Equal(http.StatusBadRequest, code, "rating %d", rating)
		suite.Equal(apierrors.ErrCodeInvalidRating, errCode, "rating %d", rating)
	}

	code, _, errCode := suite.rate(owner, task.ID, map[string]interface{}{"feedback": "no score"})
	suite.Equal(http.StatusBadRequest, code)
	suite.Equal(apierrors.ErrCodeInvalidInput, errCode)

	suite.Zero(suite.progressRowCount())
}

func (suite *HandlerTestSuite) TestRateTask_RequiresReviewerRole() {
	owner := suite.signup("owner")
	member := suite.signup("member")
	peer := suite.signup("peer")
	orgID := suite.team(owner, member, peer)
	task := suite.doneTask(owner, member, orgID, "Stretch")

	code, _, errCode := suite.rate(peer, task.ID, map[string]interface{}{"rating": 4})
	suite.Equal(http.StatusForbidden, code)
	suite.Equal(apierrors.ErrCodeInsufficientPermissions, errCode)

	suite.setRole(owner, orgID, peer.ID, "reviewer")

	code, rated, _ := suite.rate(peer, task.ID, map[string]interface{}{"rating": 4})
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal(4, *rated.Rating)
}

func (suite *HandlerTestSuite) TestGenerateTasks_NotConfigured() {
	alice := suite.signup("alice")

	w := suite.request(http.MethodPost, "/api/tasks/generate", map[string]string{"text": "buy milk tomorrow"}, alice)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal(apierrors.ErrCodeServiceUnavailable, suite.errorCode(w))
}
