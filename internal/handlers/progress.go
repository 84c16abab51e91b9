package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-task-api/internal/dto"
	apierrors "github.com/yukikurage/daily-task-api/internal/errors"
	"github.com/yukikurage/daily-task-api/internal/middleware"
	"github.com/yukikurage/daily-task-api/internal/services"
	"go.uber.org/zap"
)

type ProgressHandler struct {
	progressService *services.ProgressService
	log             *zap.Logger
}

func NewProgressHandler(progressService *services.ProgressService, log *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		log:             log,
	}
}

// GetMyProgress returns the caller's rollup; ?refresh=true recomputes it first
func (h *ProgressHandler) GetMyProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	p, err := h.progressService.GetProgress(c.Request.Context(), userID, c.Query("refresh") == "true")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProgressDTO(*p))
}

// GetUserProgress returns another user's rollup if the caller shares an
// organization with them
func (h *ProgressHandler) GetUserProgress(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	p, err := h.progressService.GetProgressFor(c.Request.Context(), viewerID, userID, c.Query("refresh") == "true")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProgressDTO(*p))
}

// Leaderboard ranks every user with enough rated tasks
func (h *ProgressHandler) Leaderboard(c *gin.Context) {
	h.leaderboard(c, nil)
}

// OrganizationLeaderboard ranks the members of the organization loaded by
// RequireOrganizationAccess
func (h *ProgressHandler) OrganizationLeaderboard(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	h.leaderboard(c, &org.ID)
}

func (h *ProgressHandler) leaderboard(c *gin.Context, organizationID *uint64) {
	query := services.LeaderboardQuery{OrganizationID: organizationID}

	if raw := c.Query("min_rated_tasks"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid min_rated_tasks")
			return
		}
		query.MinRatedTasks = &v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid limit")
			return
		}
		query.Limit = v
	}

	res, err := h.progressService.Leaderboard(c.Request.Context(), query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.LeaderboardResponse{
		MinRatedTasks: res.MinRatedTasks,
		Entries:       dto.ToLeaderboardEntries(res.Rows),
	})
}
