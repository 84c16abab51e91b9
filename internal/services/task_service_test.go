package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/utils"
	"github.com/yukikurage/daily-task-api/internal/workflow"
)

func (suite *ServiceTestSuite) TestCreateTask_Success() {
	org, reviewer, worker := suite.team()

	task := suite.createTask(org, reviewer, worker)

	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Equal("worker", task.Assignee.Username)
	suite.Equal("reviewer", task.Assigner.Username)
	suite.Nil(task.StartedAt)
	suite.Nil(task.Rating)
}

func (suite *ServiceTestSuite) TestCreateTask_Validation() {
	org, reviewer, worker := suite.team()
	outsider := suite.createUser("outsider")

	base := CreateTaskInput{
		Title:          "Task",
		OrganizationID: org.ID,
		AssignerID:     reviewer.ID,
		AssigneeID:     worker.ID,
		DueDate:        suite.now.Add(time.Hour),
	}

	tests := []struct {
		name   string
		modify func(*CreateTaskInput)
		want   error
	}{
		{"blank title", func(in *CreateTaskInput) { in.Title = "  " }, ErrTitleRequired},
		{"due now", func(in *CreateTaskInput) { in.DueDate = suite.now }, ErrDueDateNotInFuture},
		{"due in the past", func(in *CreateTaskInput) { in.DueDate = suite.now.Add(-time.Minute) }, ErrDueDateNotInFuture},
		{"bad priority", func(in *CreateTaskInput) { in.Priority = "SOMEDAY" }, ErrInvalidPriority},
		{"assigner outside organization", func(in *CreateTaskInput) { in.AssignerID = outsider.ID }, ErrNotOrganizationMember},
		{"assignee outside organization", func(in *CreateTaskInput) { in.AssigneeID = outsider.ID }, ErrInvalidTaskAssignee},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			in := base
			tt.modify(&in)
			_, err := suite.tasks.CreateTask(suite.ctx, in)
			suite.ErrorIs(err, tt.want)
		})
	}
}

func (suite *ServiceTestSuite) TestStartAndMarkDone() {
	org, reviewer, worker := suite.team()
	task := suite.createTask(org, reviewer, worker)

	_, err := suite.tasks.StartTask(suite.ctx, task.ID, reviewer.ID)
	suite.ErrorIs(err, ErrNotTaskAssignee)

	started, err := suite.tasks.StartTask(suite.ctx, task.ID, worker.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, started.Status)
	suite.Require().NotNil(started.StartedAt)

	_, err = suite.tasks.StartTask(suite.ctx, task.ID, worker.ID)
	suite.ErrorIs(err, workflow.ErrInvalidTransition)

	done, err := suite.tasks.MarkDone(suite.ctx, task.ID, worker.ID, "finished early")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, done.Status)
	suite.Equal("finished early", done.UserNotes)
	suite.Require().NotNil(done.CompletedAt)
}

func (suite *ServiceTestSuite) TestRateTask_PendingIsRejectedWithoutRecompute() {
	org, reviewer, worker := suite.team()
	task := suite.createTask(org, reviewer, worker)

	_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: reviewer.ID, Rating: 5})
	suite.ErrorIs(err, workflow.ErrInvalidTransition)

	stored := suite.reloadTask(task.ID)
	suite.Equal(models.TaskStatusPending, stored.Status)
	suite.Nil(stored.Rating)
	suite.Nil(stored.ReviewedAt)
	suite.Equal(int64(0), suite.progressRowCount(worker.ID))
	suite.Equal(0, suite.cache.invalidations)
}

func (suite *ServiceTestSuite) TestRateTask_InvalidRating() {
	org, reviewer, worker := suite.team()
	task := suite.doneTask(org, reviewer, worker)

	for _, score := range []int{0, 6, -1} {
		_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: reviewer.ID, Rating: score})
		suite.ErrorIs(err, workflow.ErrInvalidRating)
	}

	suite.Equal(models.TaskStatusDone, suite.reloadTask(task.ID).Status)
	suite.Equal(int64(0), suite.progressRowCount(worker.ID))
}

func (suite *ServiceTestSuite) TestRateTask_RequiresReviewerRole() {
	org, reviewer, worker := suite.team()
	peer := suite.createUser("peer")
	suite.addMember(org.ID, peer.ID, models.RoleMember)
	outsider := suite.createUser("outsider")
	task := suite.doneTask(org, reviewer, worker)

	_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: peer.ID, Rating: 4})
	suite.ErrorIs(err, ErrNotReviewer)

	_, err = suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: outsider.ID, Rating: 4})
	suite.ErrorIs(err, ErrNotReviewer)

	suite.Equal(models.TaskStatusDone, suite.reloadTask(task.ID).Status)
}

func (suite *ServiceTestSuite) TestRateTask_CompletesAndRecomputes() {
	org, reviewer, worker := suite.team()
	first := suite.doneTask(org, reviewer, worker)
	second := suite.doneTask(org, reviewer, worker)

	rated, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: first.ID, RaterID: reviewer.ID, Rating: 5, Feedback: "great"})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusComplete, rated.Status)
	suite.Require().NotNil(rated.Rating)
	suite.Equal(5, *rated.Rating)
	suite.Equal("great", rated.RatingFeedback)
	suite.Require().NotNil(rated.RatedBy)
	suite.Equal(reviewer.ID, rated.RatedBy.ID)

	_, err = suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: second.ID, RaterID: reviewer.ID, Rating: 3})
	suite.Require().NoError(err)

	p, err := suite.store.Progress().FindByUserID(suite.ctx, worker.ID)
	suite.Require().NoError(err)
	suite.Equal(2, p.TotalTasks)
	suite.Equal(2, p.CompletedTasks)
	suite.Equal(100.0, p.CompletionRate)
	suite.Require().NotNil(p.AverageRating)
	suite.Equal(4.0, *p.AverageRating)
	suite.Equal(2, p.TotalRatedTasks)
	suite.Equal(1, p.FiveStarCount)
	suite.Equal(1, p.ThreeStarCount)
	suite.Equal(1, p.CurrentStreak)
	suite.Equal(2, suite.cache.invalidations)

	_, err = suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: first.ID, RaterID: reviewer.ID, Rating: 1})
	suite.ErrorIs(err, workflow.ErrInvalidTransition)
	suite.Equal(5, *suite.reloadTask(first.ID).Rating)
}

func (suite *ServiceTestSuite) TestUpdateTask() {
	org, reviewer, worker := suite.team()
	task := suite.createTask(org, reviewer, worker)

	title := "Renamed"
	_, err := suite.tasks.UpdateTask(suite.ctx, task.ID, worker.ID, UpdateTaskInput{Title: &title})
	suite.ErrorIs(err, ErrNotTaskAssigner)

	past := suite.now.Add(-time.Hour)
	_, err = suite.tasks.UpdateTask(suite.ctx, task.ID, reviewer.ID, UpdateTaskInput{DueDate: &past})
	suite.ErrorIs(err, ErrDueDateNotInFuture)

	high := models.TaskPriorityHigh
	updated, err := suite.tasks.UpdateTask(suite.ctx, task.ID, reviewer.ID, UpdateTaskInput{Title: &title, Priority: &high})
	suite.Require().NoError(err)
	suite.Equal("Renamed", updated.Title)
	suite.Equal(models.TaskPriorityHigh, updated.Priority)
	suite.Equal(models.TaskStatusPending, updated.Status)
}

func (suite *ServiceTestSuite) TestUpdateTask_CompleteIsFrozen() {
	org, reviewer, worker := suite.team()
	task := suite.doneTask(org, reviewer, worker)
	_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: reviewer.ID, Rating: 4})
	suite.Require().NoError(err)

	title := "Too late"
	_, err = suite.tasks.UpdateTask(suite.ctx, task.ID, reviewer.ID, UpdateTaskInput{Title: &title})
	suite.ErrorIs(err, ErrTaskAlreadyComplete)
}

func (suite *ServiceTestSuite) TestDeleteTask_RecomputesAssignee() {
	org, reviewer, worker := suite.team()
	task := suite.doneTask(org, reviewer, worker)
	_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: reviewer.ID, Rating: 2})
	suite.Require().NoError(err)

	suite.ErrorIs(suite.tasks.DeleteTask(suite.ctx, task.ID, worker.ID), ErrNotTaskAssigner)
	suite.Require().NoError(suite.tasks.DeleteTask(suite.ctx, task.ID, reviewer.ID))

	_, err = suite.tasks.GetTask(suite.ctx, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	p, err := suite.store.Progress().FindByUserID(suite.ctx, worker.ID)
	suite.Require().NoError(err)
	suite.Equal(0, p.TotalTasks)
	suite.Nil(p.AverageRating)
	suite.Equal(1, p.LongestStreak)
}

func (suite *ServiceTestSuite) TestDeleteTask_RollsBackWhenProgressFails() {
	org, reviewer, worker := suite.team()
	task := suite.createTask(org, reviewer, worker)
	invalidations := suite.cache.invalidations

	suite.Require().NoError(suite.db.Migrator().DropTable(&models.UserProgress{}))

	err := suite.tasks.DeleteTask(suite.ctx, task.ID, reviewer.ID)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to refresh progress")

	suite.Equal(task.ID, suite.reloadTask(task.ID).ID)
	suite.Equal(invalidations, suite.cache.invalidations)
}

func (suite *ServiceTestSuite) TestListTasks_Filters() {
	org, reviewer, worker := suite.team()
	other := suite.createOrganization("other")
	suite.addMember(other.ID, reviewer.ID, models.RoleOwner)

	suite.createTask(org, reviewer, worker)
	suite.doneTask(org, reviewer, worker)
	suite.createTask(other, reviewer, reviewer)

	page := utils.NewPaginationParams(1, 10)

	tasks, total, err := suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: worker.ID, Pagination: page})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(tasks, 2)

	tasks, total, err = suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: reviewer.ID, AssignedToMe: true, Pagination: page})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(other.ID, tasks[0].OrganizationID)

	done := models.TaskStatusDone
	_, total, err = suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: reviewer.ID, AssignedByMe: true, Status: &done, Pagination: page})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)

	suite.now = suite.now.Add(48 * time.Hour)
	_, total, err = suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: reviewer.ID, OverdueOnly: true, Pagination: page})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)

	_, _, err = suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: worker.ID, OrganizationID: &other.ID, Pagination: page})
	suite.ErrorIs(err, ErrNotOrganizationMember)
}

func (suite *ServiceTestSuite) TestImportTasks() {
	org, _, worker := suite.team()
	system := suite.createUser("system")

	in := []ImportTaskInput{
		{Title: "Water plants", OrganizationID: org.ID, AssigneeID: worker.ID, DueDate: suite.now.Add(time.Hour)},
		{Title: "Sweep floor", OrganizationID: org.ID, AssigneeID: worker.ID, DueDate: suite.now.Add(2 * time.Hour), Priority: models.TaskPriorityLow},
	}

	_, err := suite.tasks.ImportTasks(suite.ctx, in)
	suite.ErrorIs(err, ErrSystemActorNotConfigured)

	suite.tasks.systemActorID = system.ID
	created, err := suite.tasks.ImportTasks(suite.ctx, in)
	suite.Require().NoError(err)
	suite.Require().Len(created, 2)
	for _, task := range created {
		suite.Equal(system.ID, task.AssignerID)
		suite.Equal(models.TaskStatusPending, task.Status)
	}
}

func (suite *ServiceTestSuite) TestImportTasks_AllOrNothing() {
	org, _, worker := suite.team()
	system := suite.createUser("system")
	suite.tasks.systemActorID = system.ID

	_, err := suite.tasks.ImportTasks(suite.ctx, []ImportTaskInput{
		{Title: "Valid", OrganizationID: org.ID, AssigneeID: worker.ID, DueDate: suite.now.Add(time.Hour)},
		{Title: "Stale", OrganizationID: org.ID, AssigneeID: worker.ID, DueDate: suite.now.Add(-time.Hour)},
	})
	suite.ErrorIs(err, ErrDueDateNotInFuture)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Count(&count).Error)
	suite.Equal(int64(0), count)
}

type stubGenerator struct {
	tasks []GeneratedTask
	err   error
}

func (g stubGenerator) GenerateTasksFromText(context.Context, string) ([]GeneratedTask, error) {
	return g.tasks, g.err
}

func (suite *ServiceTestSuite) TestGenerateTaskDrafts() {
	_, err := suite.tasks.GenerateTaskDrafts(suite.ctx, GenerateTasksInput{Text: "x"})
	suite.ErrorIs(err, ErrAIServiceNotConfigured)

	past := suite.now.Add(-time.Hour)
	future := suite.now.Add(time.Hour)
	suite.tasks.generator = stubGenerator{tasks: []GeneratedTask{
		{Title: "  "},
		{Title: "Call plumber", DueDate: &past, Priority: "SOON"},
		{Title: "Pay rent", DueDate: &future, Priority: models.TaskPriorityHigh},
	}}

	drafts, err := suite.tasks.GenerateTaskDrafts(suite.ctx, GenerateTasksInput{Text: "x"})
	suite.Require().NoError(err)
	suite.Require().Len(drafts, 2)
	suite.Nil(drafts[0].DueDate)
	suite.Equal(models.TaskPriorityMedium, drafts[0].Priority)
	suite.Equal(models.TaskPriorityHigh, drafts[1].Priority)

	suite.tasks.generator = stubGenerator{err: errors.New("boom")}
	_, err = suite.tasks.GenerateTaskDrafts(suite.ctx, GenerateTasksInput{Text: "x"})
	suite.Error(err)

	suite.tasks.generator = stubGenerator{}
	_, err = suite.tasks.GenerateTaskDrafts(suite.ctx, GenerateTasksInput{Text: "x"})
	suite.ErrorIs(err, ErrAINoTasksGenerated)
}

func (suite *ServiceTestSuite) TestGetTask_NotFound() {
	_, err := suite.tasks.GetTask(suite.ctx, 999)
	suite.ErrorIs(err, ErrTaskNotFound)
	suite.False(errors.Is(err, gorm.ErrRecordNotFound))
}
