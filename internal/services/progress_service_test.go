package services

import (
	"time"

	"github.com/yukikurage/daily-task-api/internal/models"
)

func (suite *ServiceTestSuite) TestGetProgress_ZeroTasks() {
	user := suite.createUser("idle")

	p, err := suite.progress.GetProgress(suite.ctx, user.ID, false)
	suite.Require().NoError(err)

	suite.Equal(0, p.TotalTasks)
	suite.Equal(0.0, p.CompletionRate)
	suite.Nil(p.AverageRating)
	suite.Nil(p.AverageCompletionTime)
	suite.Equal(0.0, p.OnTimeCompletionRate)
	suite.Equal(0, p.CurrentStreak)
	suite.Equal(0, p.LongestStreak)
	suite.Nil(p.LastTaskDate)
	suite.Equal(int64(1), suite.progressRowCount(user.ID))
}

func (suite *ServiceTestSuite) TestGetProgress_StaleUntilRefresh() {
	org, reviewer, worker := suite.team()

	p, err := suite.progress.GetProgress(suite.ctx, worker.ID, false)
	suite.Require().NoError(err)
	suite.Equal(0, p.TotalTasks)

	suite.createTask(org, reviewer, worker)

	p, err = suite.progress.GetProgress(suite.ctx, worker.ID, false)
	suite.Require().NoError(err)
	suite.Equal(0, p.TotalTasks)

	p, err = suite.progress.GetProgress(suite.ctx, worker.ID, true)
	suite.Require().NoError(err)
	suite.Equal(1, p.TotalTasks)
	suite.Equal(1, p.PendingTasks)
}

func (suite *ServiceTestSuite) TestGetProgress_ForceRefreshIsIdempotent() {
	org, reviewer, worker := suite.team()
	task := suite.doneTask(org, reviewer, worker)
	_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: reviewer.ID, Rating: 4})
	suite.Require().NoError(err)
	suite.createTask(org, reviewer, worker)

	first, err := suite.progress.GetProgress(suite.ctx, worker.ID, true)
	suite.Require().NoError(err)
	second, err := suite.progress.GetProgress(suite.ctx, worker.ID, true)
	suite.Require().NoError(err)

	first.CreatedAt, first.UpdatedAt = time.Time{}, time.Time{}
	second.CreatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	suite.Equal(*first, *second)
	suite.Equal(50.0, second.CompletionRate)
}

func (suite *ServiceTestSuite) TestRecompute_LongestStreakNeverRegresses() {
	org, reviewer, worker := suite.team()
	suite.Require().NoError(suite.store.Progress().Upsert(suite.ctx, &models.UserProgress{
		UserID:        worker.ID,
		LongestStreak: 10,
	}))

	task := suite.doneTask(org, reviewer, worker)
	_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: reviewer.ID, Rating: 5})
	suite.Require().NoError(err)

	p, err := suite.progress.GetProgress(suite.ctx, worker.ID, false)
	suite.Require().NoError(err)
	suite.Equal(1, p.CurrentStreak)
	suite.Equal(10, p.LongestStreak)
}

func (suite *ServiceTestSuite) TestGetProgressFor_Visibility() {
	_, reviewer, worker := suite.team()
	stranger := suite.createUser("stranger")

	_, err := suite.progress.GetProgressFor(suite.ctx, reviewer.ID, worker.ID, false)
	suite.NoError(err)

	_, err = suite.progress.GetProgressFor(suite.ctx, stranger.ID, worker.ID, false)
	suite.ErrorIs(err, ErrProgressNotVisible)

	_, err = suite.progress.GetProgressFor(suite.ctx, stranger.ID, stranger.ID, false)
	suite.NoError(err)
}

// seedRated gives user n COMPLETE tasks rated score
func (suite *ServiceTestSuite) seedRated(org *models.Organization, reviewer, user *models.User, n, score int) {
	for i := 0; i < n; i++ {
		task := suite.doneTask(org, reviewer, user)
		_, err := suite.tasks.RateTask(suite.ctx, RateTaskInput{TaskID: task.ID, RaterID: reviewer.ID, Rating: score})
		suite.Require().NoError(err)
	}
}

func (suite *ServiceTestSuite) TestLeaderboard() {
	org, reviewer, worker := suite.team()
	star := suite.createUser("star")
	novice := suite.createUser("novice")
	suite.addMember(org.ID, star.ID, models.RoleMember)
	suite.addMember(org.ID, novice.ID, models.RoleMember)

	suite.seedRated(org, reviewer, worker, 5, 3)
	suite.seedRated(org, reviewer, star, 5, 5)
	suite.seedRated(org, reviewer, novice, 2, 5)

	res, err := suite.progress.Leaderboard(suite.ctx, LeaderboardQuery{})
	suite.Require().NoError(err)
	suite.Equal(5, res.MinRatedTasks)
	suite.Require().Len(res.Rows, 2)
	suite.Equal(star.ID, res.Rows[0].UserID)
	suite.Equal("star", res.Rows[0].User.Username)
	suite.Equal(worker.ID, res.Rows[1].UserID)

	one := 1
	res, err = suite.progress.Leaderboard(suite.ctx, LeaderboardQuery{MinRatedTasks: &one, OrganizationID: &org.ID})
	suite.Require().NoError(err)
	suite.Len(res.Rows, 3)

	negative := -1
	_, err = suite.progress.Leaderboard(suite.ctx, LeaderboardQuery{MinRatedTasks: &negative})
	suite.ErrorIs(err, ErrInvalidMinRated)
}

func (suite *ServiceTestSuite) TestLeaderboard_CachedUntilRecompute() {
	org, reviewer, worker := suite.team()
	suite.seedRated(org, reviewer, worker, 5, 4)

	_, err := suite.progress.Leaderboard(suite.ctx, LeaderboardQuery{})
	suite.Require().NoError(err)
	suite.Equal(0, suite.cache.hits)

	cached, err := suite.progress.Leaderboard(suite.ctx, LeaderboardQuery{})
	suite.Require().NoError(err)
	suite.Equal(1, suite.cache.hits)
	suite.Require().Len(cached.Rows, 1)

	suite.seedRated(org, reviewer, worker, 1, 1)

	fresh, err := suite.progress.Leaderboard(suite.ctx, LeaderboardQuery{})
	suite.Require().NoError(err)
	suite.Equal(1, suite.cache.hits)
	suite.Require().Len(fresh.Rows, 1)
	suite.Equal(6, fresh.Rows[0].TotalRatedTasks)
}

func (suite *ServiceTestSuite) TestRefreshAll() {
	org, reviewer, worker := suite.team()
	suite.createTask(org, reviewer, worker)
	suite.createTask(org, worker, reviewer)

	n, err := suite.progress.RefreshAll(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(2, n)
	suite.Equal(int64(1), suite.progressRowCount(worker.ID))
	suite.Equal(int64(1), suite.progressRowCount(reviewer.ID))
}
