package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-task-api/internal/constants"
	apierrors "github.com/yukikurage/daily-task-api/internal/errors"
	"github.com/yukikurage/daily-task-api/internal/logger"
	"github.com/yukikurage/daily-task-api/internal/middleware"
	"github.com/yukikurage/daily-task-api/internal/services"
	"github.com/yukikurage/daily-task-api/internal/workflow"
	"go.uber.org/zap"
)

// respondError maps service errors onto API errors. Anything unrecognized is
// logged and reported as a 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, workflow.ErrInvalidRating):
		apierrors.InvalidRating(c, fmt.Sprintf("Rating must be between %d and %d", constants.MinRating, constants.MaxRating))
	case errors.Is(err, workflow.ErrInvalidTransition):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrTaskAlreadyComplete):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrTaskStateChanged):
		apierrors.Conflict(c, err.Error())

	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrDueDateNotInFuture),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidMinRated),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrCannotChangeOwnRole),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)

	case errors.Is(err, services.ErrNotReviewer),
		errors.Is(err, services.ErrNotTaskAssignee),
		errors.Is(err, services.ErrNotTaskAssigner):
		apierrors.InsufficientPermissions(c, err.Error())
	case errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrProgressNotVisible):
		apierrors.Forbidden(c, err.Error())

	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrOrganizationMemberNotFound),
		errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, err.Error())

	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrAlreadyOrganizationMember):
		apierrors.AlreadyExists(c, err.Error())

	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())

	default:
		logger.WithRequestID(c.Request.Context(), log).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// parseIDParam reads a positive integer route parameter
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

// parseOptionalUint reads an optional positive integer query parameter
func parseOptionalUint(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
		return nil, false
	}
	return &v, true
}

// currentUserID reads the authenticated user, answering 401 when absent
func currentUserID(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}
