package routes

import (
	"github.com/gin-gonic/gin"

	"ai-governance-api/controllers"
	"ai-governance-api/middleware"
	"ai-governance-api/models"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "AI Governance API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Intake submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.GetSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.POST("", controllers.CreateSubmission)
				submissions.PUT("/:id", controllers.UpdateSubmission)
				submissions.DELETE("/:id", controllers.DeleteSubmission)
				submissions.POST("/:id/submit", controllers.SubmitSubmission)

				// Risk assessment (owner or reviewer)
				submissions.GET("/:id/assessment", controllers.GetAssessment)
			}

			// Reviewer/admin actions
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleReviewer, models.RoleAdmin))
			{
				admin.GET("/reviews", controllers.GetReviewQueue)
				admin.POST("/submissions/:id/approve", controllers.ApproveSubmission)
				admin.POST("/submissions/:id/reject", controllers.RejectSubmission)
				admin.POST("/submissions/:id/request-changes", controllers.RequestChanges)
				admin.POST("/submissions/:id/escalate", controllers.EscalateSubmission)
				admin.GET("/submissions/:id/escalate", controllers.GetEscalationStatus)
				admin.GET("/submissions/:id/audit", controllers.GetAuditTrail)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}
		}
	}
}
