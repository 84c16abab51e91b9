package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-task-api/internal/constants"
	"github.com/yukikurage/daily-task-api/internal/middleware"
	"github.com/yukikurage/daily-task-api/internal/models"
	"github.com/yukikurage/daily-task-api/internal/repository"
	"github.com/yukikurage/daily-task-api/internal/services"
	"go.uber.org/zap"
)

// RouterDeps carries everything the HTTP layer needs
type RouterDeps struct {
	Store         repository.Store
	SessionStore  sessions.Store
	Logger        *zap.Logger
	Auth          *services.AuthService
	Organizations *services.OrganizationService
	Tasks         *services.TaskService
	Progress      *services.ProgressService
}

// NewRouter builds the gin engine with every API route registered
func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	authHandler := NewAuthHandler(deps.Auth, log)
	orgHandler := NewOrganizationHandler(deps.Organizations, log)
	taskHandler := NewTaskHandler(deps.Tasks, log)
	progressHandler := NewProgressHandler(deps.Progress, log)

	orgAccess := middleware.RequireOrganizationAccess(deps.Store.Organizations())
	ownerOnly := middleware.RequireOrganizationOwner()
	taskAccess := middleware.RequireTaskAccess(deps.Store)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Daily Task API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.POST("/join", orgHandler.JoinOrganization)
			orgs.GET("/:id", orgAccess, orgHandler.GetOrganization)
			orgs.PUT("/:id", orgAccess, ownerOnly, orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", orgAccess, ownerOnly, orgHandler.DeleteOrganization)
			orgs.POST("/:id/regenerate-code", orgAccess, ownerOnly, orgHandler.RegenerateInviteCode)
			orgs.PUT("/:id/members/:user_id/role", orgAccess, ownerOnly, orgHandler.UpdateMemberRole)
			orgs.DELETE("/:id/members/:user_id", orgAccess, ownerOnly, orgHandler.RemoveMember)
			orgs.GET("/:id/leaderboard", orgAccess, progressHandler.OrganizationLeaderboard)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskAccess, taskHandler.GetTask)
			tasks.PATCH("/:id", taskAccess, taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskAccess, taskHandler.DeleteTask)
			tasks.POST("/:id/start", taskAccess, taskHandler.StartTask)
			tasks.POST("/:id/done", taskAccess, taskHandler.MarkDone)
			tasks.POST("/:id/rate", taskAccess, middleware.RequireOrganizationRole(models.RoleOwner, models.RoleReviewer), taskHandler.RateTask)
		}

		progress := api.Group("/progress")
		progress.Use(middleware.RequireAuth())
		{
			progress.GET("/me", progressHandler.GetMyProgress)
			progress.GET("/users/:user_id", progressHandler.GetUserProgress)
		}

		api.GET("/leaderboard", middleware.RequireAuth(), progressHandler.Leaderboard)
	}

	return r
}
