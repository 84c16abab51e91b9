package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/daily-task-api/internal/cache"
	"github.com/yukikurage/daily-task-api/internal/constants"
	"github.com/yukikurage/daily-task-api/internal/logger"
	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/progress"
	"github.com/yukikurage/daily-task-api/internal/repository"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrProgressNotVisible = errors.New("progress of this user is not visible to you")
	ErrInvalidMinRated    = errors.New("min_rated_tasks must not be negative")
)

// ProgressOptions configures rollup and leaderboard behavior.
type ProgressOptions struct {
	// Location buckets completion timestamps into calendar days for streaks.
	Location *time.Location
	// LeaderboardMinRated is the threshold used when a query does not set one.
	LeaderboardMinRated int
}

// ProgressService maintains UserProgress rollups and serves the leaderboard.
type ProgressService struct {
	store    repository.Store
	cache    cache.LeaderboardCache
	log      *zap.Logger
	loc      *time.Location
	minRated int
	now      func() time.Time
}

// NewProgressService creates a new ProgressService.
func NewProgressService(store repository.Store, lbCache cache.LeaderboardCache, log *zap.Logger, opts ProgressOptions) *ProgressService {
	if lbCache == nil {
		lbCache = cache.NoopLeaderboardCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &ProgressService{
		store:    store,
		cache:    lbCache,
		log:      log,
		loc:      opts.Location,
		minRated: opts.LeaderboardMinRated,
		now:      time.Now,
	}
}

// GetProgress returns the stored rollup for userID, recomputing it first when
// forceRefresh is set or when none exists yet.
func (s *ProgressService) GetProgress(ctx context.Context, userID uint64, forceRefresh bool) (*models.UserProgress, error) {
	if !forceRefresh {
		p, err := s.store.Progress().FindByUserID(ctx, userID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load progress: %w", err)
		}
	}

	return s.Recompute(ctx, userID)
}

// GetProgressFor returns userID's rollup to viewerID. Users see their own
// progress and that of anyone they share an organization with.
func (s *ProgressService) GetProgressFor(ctx context.Context, viewerID, userID uint64, forceRefresh bool) (*models.UserProgress, error) {
	if viewerID != userID {
		shared, err := s.store.Users().SharesOrganization(ctx, viewerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check shared organization: %w", err)
		}
		if !shared {
			return nil, ErrProgressNotVisible
		}
	}

	return s.GetProgress(ctx, userID, forceRefresh)
}

// Recompute rebuilds and stores the rollup for userID.
func (s *ProgressService) Recompute(ctx context.Context, userID uint64) (*models.UserProgress, error) {
	p, err := s.recompute(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	s.invalidateLeaderboard(ctx)
	return p, nil
}

// OnTaskRated recomputes the assignee's rollup using tx, the store of the
// transaction that persisted the rating. Callers invalidate the leaderboard
// once tx commits.
func (s *ProgressService) OnTaskRated(ctx context.Context, tx repository.Store, task *models.Task) (*models.UserProgress, error) {
	return s.recompute(ctx, tx, task.AssigneeID)
}

// OnTaskDeleted recomputes the assignee's rollup inside the transaction that
// removed task.
func (s *ProgressService) OnTaskDeleted(ctx context.Context, tx repository.Store, task *models.Task) (*models.UserProgress, error) {
	return s.recompute(ctx, tx, task.AssigneeID)
}

// RecomputeUsers recomputes each user in turn, collecting failures.
func (s *ProgressService) RecomputeUsers(ctx context.Context, userIDs []uint64) error {
	var errs error
	for _, id := range userIDs {
		if _, err := s.recompute(ctx, s.store, id); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("user %d: %w", id, err))
		}
	}

	if len(userIDs) > 0 {
		s.invalidateLeaderboard(ctx)
	}
	return errs
}

// RefreshAll recomputes every user holding at least one task and returns how
// many users were processed.
func (s *ProgressService) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.store.Tasks().ListAssigneeIDs(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list users with tasks: %w", err)
	}

	err = s.RecomputeUsers(ctx, ids)
	logger.WithRequestID(ctx, s.log).Info("progress refreshed",
		zap.Int("users", len(ids)),
		zap.Int("failed", len(multierr.Errors(err))),
	)

	return len(ids), err
}

func (s *ProgressService) recompute(ctx context.Context, store repository.Store, userID uint64) (*models.UserProgress, error) {
	tasks, err := store.Tasks().ListByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	previous, err := store.Progress().FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load progress: %w", err)
		}
		previous = nil
	}

	p := progress.Recalculate(userID, tasks, previous, s.now(), s.loc)
	if err := store.Progress().Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	logger.WithRequestID(ctx, s.log).Debug("progress recomputed",
		zap.Uint64("user_id", userID),
		zap.Int("total_tasks", p.TotalTasks),
		zap.Int("rated_tasks", p.TotalRatedTasks),
		zap.Int("current_streak", p.CurrentStreak),
	)

	return p, nil
}

func (s *ProgressService) invalidateLeaderboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.WithRequestID(ctx, s.log).Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}

// LeaderboardQuery selects a leaderboard. A nil MinRatedTasks uses the
// configured threshold; a zero Limit uses the default page.
type LeaderboardQuery struct {
	OrganizationID *uint64
	MinRatedTasks  *int
	Limit          int
}

// LeaderboardResult is a ranked list together with the threshold applied.
type LeaderboardResult struct {
	MinRatedTasks int
	Rows          []models.UserProgress
}

// Leaderboard ranks users with at least MinRatedTasks rated tasks by average
// rating, then completion rate. Results are served from the cache when present.
func (s *ProgressService) Leaderboard(ctx context.Context, q LeaderboardQuery) (*LeaderboardResult, error) {
	minRated := s.minRated
	if q.MinRatedTasks != nil {
		minRated = *q.MinRatedTasks
	}
	if minRated < 0 {
		return nil, ErrInvalidMinRated
	}

	limit := q.Limit
	if limit <= 0 {
		limit = constants.DefaultLeaderboardLimit
	}
	if limit > constants.MaxLeaderboardLimit {
		limit = constants.MaxLeaderboardLimit
	}

	log := logger.WithRequestID(ctx, s.log)
	cacheQuery := cache.LeaderboardQuery{OrganizationID: q.OrganizationID, MinRatedTasks: minRated, Limit: limit}

	key, err := s.cache.Key(ctx, cacheQuery)
	if err != nil {
		log.Warn("leaderboard cache unavailable", zap.Error(err))
		key = ""
	}

	if key != "" {
		rows, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("leaderboard cache read failed", zap.Error(err))
		} else if hit {
			return &LeaderboardResult{MinRatedTasks: minRated, Rows: rows}, nil
		}
	}

	rows, err := s.store.Progress().Leaderboard(ctx, repository.LeaderboardFilter{
		MinRatedTasks:  minRated,
		OrganizationID: q.OrganizationID,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, rows); err != nil {
			log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}

	return &LeaderboardResult{MinRatedTasks: minRated, Rows: rows}, nil
}
