package app

import (
	"campuswell_backend/docs"
	"campuswell_backend/internal/config"
	"campuswell_backend/internal/middleware"
	"campuswell_backend/internal/model"
	"campuswell_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/me", c.auth.Me)

		// Student self-service
		student := authGroup.Group("")
		student.Use(middleware.RoleMiddleware(model.RoleStudent))
		{
			student.POST("/messages", c.message.Ingest)
			student.POST("/assessments", c.assessment.Submit)
			student.POST("/students/consent", c.student.Consent)
			student.POST("/voice-notes", c.media.Upload)
			student.POST("/journal/suggestions", c.journal.Suggestions)
		}

		// Counselor views and actions
		counselor := authGroup.Group("")
		counselor.Use(middleware.RoleMiddleware(model.RoleCounselor))
		{
			counselor.GET("/students", c.student.List)
			counselor.GET("/students/:id", c.student.Overview)
			counselor.GET("/students/:id/assessments", c.assessment.ListForStudent)
			counselor.GET("/students/:id/assessments/trajectory", c.assessment.Trajectory)
			counselor.POST("/students/:id/cssrs-check", c.assessment.CSSRSTriggerCheck)
			counselor.GET("/students/:id/baseline", c.student.Baseline)
			counselor.GET("/students/:id/trajectory", c.temporal.Trajectory)
			counselor.GET("/students/:id/alerts", c.alert.ListForStudent)
			counselor.GET("/students/:id/patterns", c.temporal.ListForStudent)
			counselor.POST("/students/:id/patterns/analyze", c.temporal.Analyze)
			counselor.GET("/students/:id/outcomes", c.analytics.StudentOutcomes)
			counselor.GET("/students/:id/crisis-reports", c.analytics.StudentCrisisReports)
			counselor.GET("/students/:id/voice-notes", c.media.ListForStudent)
			counselor.POST("/students/:id/messages", c.message.IngestForStudent)
			counselor.POST("/voice-notes/:id/transcript", c.media.AttachTranscript)

			counselor.GET("/alerts/queue", c.alert.Queue)
			counselor.GET("/alerts/:id", c.alert.Get)
			counselor.POST("/alerts/:id/review", c.alert.Review)
			counselor.POST("/alerts/:id/feedback", c.alert.SubmitFeedback)
			counselor.GET("/alerts/:id/context", c.alert.Context)
			counselor.POST("/alerts/:id/outcome", c.alert.RecordOutcome)

			counselor.GET("/analytics/dashboard", c.analytics.Dashboard)
			counselor.GET("/analytics/outcomes", c.analytics.OutcomeSummary)
			counselor.GET("/crisis-reports/:id", c.analytics.CrisisReport)
		}

		// Admin operations
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.RoleAdmin))
		{
			admin.POST("/outcome-sweep", c.admin.RunOutcomeSweep)
			admin.GET("/stats", c.admin.Stats)
			admin.GET("/wellness-trends", c.admin.WellnessTrends)
		}
	}
}
