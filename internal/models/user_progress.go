package models

import "time"

// UserProgress is a per-user rollup derived from that user's tasks. It is
// rebuilt from scratch on every recompute and is stale as soon as any of the
// user's tasks changes.
type UserProgress struct {
	UserID uint64 `gorm:"primarykey;autoIncrement:false" json:"user_id"`

	TotalTasks     int     `gorm:"not null" json:"total_tasks"`
	CompletedTasks int     `gorm:"not null" json:"completed_tasks"`
	PendingTasks   int     `gorm:"not null" json:"pending_tasks"`
	OverdueTasks   int     `gorm:"not null" json:"overdue_tasks"`
	CompletionRate float64 `gorm:"not null;index" json:"completion_rate"`

	AverageRating   *float64 `gorm:"index" json:"average_rating"`
	TotalRatedTasks int      `gorm:"not null;index" json:"total_rated_tasks"`
	FiveStarCount   int      `gorm:"not null" json:"five_star_count"`
	FourStarCount   int      `gorm:"not null" json:"four_star_count"`
	ThreeStarCount  int      `gorm:"not null" json:"three_star_count"`
	TwoStarCount    int      `gorm:"not null" json:"two_star_count"`
	OneStarCount    int      `gorm:"not null" json:"one_star_count"`

	AverageCompletionTime *time.Duration `json:"average_completion_time"`
	OnTimeCompletionRate  float64        `gorm:"not null" json:"on_time_completion_rate"`

	CurrentStreak int        `gorm:"not null" json:"current_streak"`
	LongestStreak int        `gorm:"not null" json:"longest_streak"`
	LastTaskDate  *time.Time `json:"last_task_date"`

	LastCalculatedAt time.Time `json:"last_calculated_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName keeps the table name singular across dialects.
func (UserProgress) TableName() string {
	return "user_progress"
}
