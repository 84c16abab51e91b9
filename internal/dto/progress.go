package dto

import (
	"time"

	"github.com/yukikurage/daily-task-api/internal/models"
)

// RatingDistributionDTO is the per-star histogram of rated tasks
type RatingDistributionDTO struct {
	FiveStar  int `json:"5"`
	FourStar  int `json:"4"`
	ThreeStar int `json:"3"`
	TwoStar   int `json:"2"`
	OneStar   int `json:"1"`
}

// ProgressDTO represents a user's progress rollup in API responses
type ProgressDTO struct {
	UserID         uint64  `json:"user_id"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	PendingTasks   int     `json:"pending_tasks"`
	OverdueTasks   int     `json:"overdue_tasks"`
	CompletionRate float64 `json:"completion_rate"`

	AverageRating      *float64              `json:"average_rating"`
	TotalRatedTasks    int                   `json:"total_rated_tasks"`
	RatingDistribution RatingDistributionDTO `json:"rating_distribution"`

	// AverageCompletionSeconds is the mean start-to-done duration in seconds
	AverageCompletionSeconds *float64 `json:"average_completion_seconds"`
	OnTimeCompletionRate     float64  `json:"on_time_completion_rate"`

	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	LastTaskDate  *string `json:"last_task_date"`

	LastCalculatedAt time.Time `json:"last_calculated_at"`
	User             *UserDTO  `json:"user,omitempty"`
}

// LeaderboardEntryDTO is one ranked row of the leaderboard
type LeaderboardEntryDTO struct {
	Rank            int      `json:"rank"`
	User            UserDTO  `json:"user"`
	AverageRating   *float64 `json:"average_rating"`
	TotalRatedTasks int      `json:"total_rated_tasks"`
	CompletedTasks  int      `json:"completed_tasks"`
	CompletionRate  float64  `json:"completion_rate"`
	CurrentStreak   int      `json:"current_streak"`
	LongestStreak   int      `json:"longest_streak"`
}

// LeaderboardResponse wraps the ranked entries with the threshold applied
type LeaderboardResponse struct {
	MinRatedTasks int                   `json:"min_rated_tasks"`
	Entries       []LeaderboardEntryDTO `json:"entries"`
}

// ToProgressDTO converts a UserProgress model to ProgressDTO
func ToProgressDTO(p models.UserProgress) ProgressDTO {
	dto := ProgressDTO{
		UserID:          p.UserID,
		TotalTasks:      p.TotalTasks,
		CompletedTasks:  p.CompletedTasks,
		PendingTasks:    p.PendingTasks,
		OverdueTasks:    p.OverdueTasks,
		CompletionRate:  p.CompletionRate,
		AverageRating:   p.AverageRating,
		TotalRatedTasks: p.TotalRatedTasks,
		RatingDistribution: RatingDistributionDTO{
			FiveStar:  p.FiveStarCount,
			FourStar:  p.FourStarCount,
			ThreeStar: p.ThreeStarCount,
			TwoStar:   p.TwoStarCount,
			OneStar:   p.OneStarCount,
		},
		OnTimeCompletionRate: p.OnTimeCompletionRate,
		CurrentStreak:        p.CurrentStreak,
		LongestStreak:        p.LongestStreak,
		LastCalculatedAt:     p.LastCalculatedAt,
	}

	if p.AverageCompletionTime != nil {
		secs := p.AverageCompletionTime.Seconds()
		dto.AverageCompletionSeconds = &secs
	}
	if p.LastTaskDate != nil {
		day := p.LastTaskDate.UTC().Format("2006-01-02")
		dto.LastTaskDate = &day
	}
	if p.User.ID != 0 {
		user := ToUserDTO(p.User)
		dto.User = &user
	}

	return dto
}

// ToLeaderboardEntries ranks rollups in the order they are given, starting at 1
func ToLeaderboardEntries(rows []models.UserProgress) []LeaderboardEntryDTO {
	entries := make([]LeaderboardEntryDTO, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntryDTO{
			Rank:            i + 1,
			User:            ToUserDTO(row.User),
			AverageRating:   row.AverageRating,
			TotalRatedTasks: row.TotalRatedTasks,
			CompletedTasks:  row.CompletedTasks,
			CompletionRate:  row.CompletionRate,
			CurrentStreak:   row.CurrentStreak,
			LongestStreak:   row.LongestStreak,
		}
	}
	return entries
}
