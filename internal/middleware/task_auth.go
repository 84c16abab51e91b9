package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-task-api/internal/constants"
	apierrors "github.com/yukikurage/daily-task-api/internal/errors"
	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/repository"
)

// RequireTaskAccess checks if the user has access to a task
// User must be a member of the task's organization
func RequireTaskAccess(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		ctx := c.Request.Context()

		task, err := store.Tasks().FindByID(ctx, taskID, "Assignee", "Assigner", "RatedBy", "Organization")
		if err != nil {
			abortLookup(c, err, "Task not found")
			return
		}

		member, err := store.Organizations().FindMember(ctx, task.OrganizationID, userID)
		if err != nil {
			// Return 404 instead of 403 to avoid leaking task existence
			abortLookup(c, err, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Set(constants.ContextKeyOrganizationMember, *member)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	v, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := v.(models.Task)
	return task, ok
}
