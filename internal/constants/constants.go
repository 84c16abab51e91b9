package constants

// Session and context keys
const (
	SessionCookieName = "task_session"
	ContextKeyUserID  = "user_id"
	ContextKeyTask    = "task"

	ContextKeyOrganization       = "organization"
	ContextKeyOrganizationMember = "organization_member"
	ContextKeyRequestID          = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// Auth
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Rating
const (
	MinRating = 1
	MaxRating = 5
)

// Leaderboard
const (
	DefaultLeaderboardMinRated = 5
	DefaultLeaderboardLimit    = 50
	MaxLeaderboardLimit        = 200

	LeaderboardGenerationKey = "leaderboard:generation"
	LeaderboardKeyPrefix     = "leaderboard:"
)

// AI
const (
	MaxAIGeneratedTasks = 20
)
