package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	applicationctl "UniJobBoard-backend/internal/controller/application"
	"UniJobBoard-backend/internal/controller/jobpost"
	notificationctl "UniJobBoard-backend/internal/controller/notification"
	"UniJobBoard-backend/internal/middleware"
	"UniJobBoard-backend/internal/model"
)

// maxResumeSize caps résumé uploads.
const maxResumeSize = 10 << 20

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = maxResumeSize

	jobController := jobpost.NewJobPostController(s.Jobs)
	applicationController := applicationctl.NewApplicationController(s.Applications)
	inboxController := notificationctl.NewInboxController(s.Inbox)

	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.SafeHeader())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.Config.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)

	v1 := r.Group("/api/v1")
	// Optional auth runs first so the rate limiter can key on the user.
	v1.Use(middleware.OptionalAuth(s.DB), middleware.RateLimiterMiddleware(s.Config.RateLimitPerSecond))
	{
		// Public job board
		jobsRoute := v1.Group("/jobs")
		{
			jobsRoute.GET("", jobController.GetPosts)
			jobsRoute.GET("/departments", jobController.Departments)
			jobsRoute.GET("/:id", jobController.GetPostByID)
		}

		needAuth := v1.Group("")
		needAuth.Use(middleware.RequireAuth(s.DB))
		{
			needAuth.GET("/jobs/:id/applied", applicationController.HasApplied)

			needFaculty := needAuth.Group("")
			{
				needFaculty.Use(middleware.CheckRole(model.RoleFaculty, model.RoleAdmin))
				needFaculty.POST("/jobs", jobController.CreateJobPostHandler)
				needFaculty.GET("/jobs/stats", jobController.Stats)
				needFaculty.PATCH("/jobs/:id", jobController.EditJobPost)
				needFaculty.DELETE("/jobs/:id", jobController.DeleteJobPost)
				needFaculty.POST("/jobs/:id/activate", jobController.Activate)
				needFaculty.POST("/jobs/:id/deactivate", jobController.Deactivate)
				needFaculty.GET("/jobs/:id/applications", applicationController.ListByJob)
				needFaculty.GET("/jobs/:id/applications/stats", applicationController.JobStats)
				needFaculty.PATCH("/applications/status", applicationController.BulkUpdateStatus)
				needFaculty.PATCH("/applications/:id/status", applicationController.UpdateStatus)
			}

			applicationRoute := needAuth.Group("/applications")
			{
				applicationRoute.POST("",
					middleware.CheckRole(model.RoleStudent),
					middleware.SizeLimit(maxResumeSize),
					applicationController.ApplicationHandler)
				applicationRoute.GET("/mine", applicationController.ListMine)
				applicationRoute.GET("/:id", applicationController.GetApplication)
				applicationRoute.DELETE("/:id", applicationController.DeleteApplication)
			}

			notificationRoute := needAuth.Group("/notifications")
			{
				notificationRoute.GET("", inboxController.List)
				notificationRoute.GET("/unread-count", inboxController.UnreadCount)
				notificationRoute.PATCH("/read-all", inboxController.MarkAllRead)
				notificationRoute.PATCH("/:id/read", inboxController.MarkRead)
			}
		}
	}

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	resp := make(map[string]string)
	resp["message"] = "Hello World"

	c.JSON(http.StatusOK, resp)
}

func (s *MyServer) healthHandler(c *gin.Context) {
	health := s.DB.Health()
	status := http.StatusOK
	if health["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
