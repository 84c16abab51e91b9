package cache

import (
	"context"
	"fmt"

	"github.com/yukikurage/daily-task-api/internal/models"
)

// LeaderboardQuery identifies one cached leaderboard page
type LeaderboardQuery struct {
	OrganizationID *uint64
	MinRatedTasks  int
	Limit          int
}

func (q LeaderboardQuery) suffix() string {
	scope := "all"
	if q.OrganizationID != nil {
		scope = fmt.Sprintf("org%d", *q.OrganizationID)
	}
	return fmt.Sprintf("%s:min%d:limit%d", scope, q.MinRatedTasks, q.Limit)
}

// LeaderboardCache stores ranked rollups between recomputes.
//
// Key resolves the storage key for a query at the current generation. Callers
// read the key before querying the database so that rows computed before an
// Invalidate land under a generation nobody reads any more.
type LeaderboardCache interface {
	Key(ctx context.Context, q LeaderboardQuery) (string, error)
	Get(ctx context.Context, key string) ([]models.UserProgress, bool, error)
	Set(ctx context.Context, key string, rows []models.UserProgress) error
	Invalidate(ctx context.Context) error
}

// NoopLeaderboardCache never stores anything
type NoopLeaderboardCache struct{}

func (NoopLeaderboardCache) Key(context.Context, LeaderboardQuery) (string, error) { return "", nil }

func (NoopLeaderboardCache) Get(context.Context, string) ([]models.UserProgress, bool, error) {
	return nil, false, nil
}

func (NoopLeaderboardCache) Set(context.Context, string, []models.UserProgress) error { return nil }

func (NoopLeaderboardCache) Invalidate(context.Context) error { return nil }
