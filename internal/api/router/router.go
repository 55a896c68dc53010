package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/config"
	"github.com/CentZek/newesthr-sub000/internal/api/handler"
	"github.com/CentZek/newesthr-sub000/internal/api/middleware"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/pkg/jwt"
	"github.com/CentZek/newesthr-sub000/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleHR)
	admin := middleware.RoleAuth(model.RoleAdmin)

	v1 := r.Group("/api/v1")
	{
		var attempts middleware.AttemptCounter
		if rdb != nil {
			attempts = rdb
		}
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.LoginRateLimit(attempts, cfg.Auth.LoginRateLimit, time.Minute, logger), h.Auth.Login)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/users", admin, h.Auth.CreateUser)

			employees := authorized.Group("/employees", staff)
			{
				employees.GET("", h.Employee.List)
				employees.GET("/:id", h.Employee.Get)
				employees.POST("", h.Employee.Create)
				employees.PUT("/:id", h.Employee.Update)
			}

			// employees submit for themselves, checked in the handler
			authorized.POST("/punches", h.Punch.Submit)
			authorized.POST("/punches/import", staff, h.Punch.Import)
			authorized.POST("/reconcile", staff, h.Punch.Reconcile)

			authorized.POST("/leaves", staff, h.Absence.SubmitLeave)
			authorized.POST("/off-days", staff, h.Absence.SubmitOffDay)

			submissions := authorized.Group("/shift-submissions")
			{
				submissions.POST("", h.Submission.Create)
				submissions.GET("", h.Submission.List)
				submissions.PUT("/:id/confirm", staff, h.Submission.Confirm)
				submissions.PUT("/:id/reject", staff, h.Submission.Reject)
			}

			records := authorized.Group("/daily-records", staff)
			{
				records.GET("", h.DailyRecord.List)
				records.GET("/:id", h.DailyRecord.Get)
				records.PUT("/approve", h.DailyRecord.Approve)
				records.PUT("/unapprove", h.DailyRecord.Unapprove)
				records.PUT("/penalty", h.DailyRecord.ApplyPenalty)
				records.PUT("/times", h.DailyRecord.EditTimes)
				records.PUT("/swap", h.DailyRecord.Swap)
				records.DELETE("", admin, h.Maintenance.DeleteRecords)
			}

			holidays := authorized.Group("/holidays")
			{
				holidays.GET("", h.Holiday.List)
				holidays.GET("/export", h.Holiday.Export)
				holidays.POST("", staff, h.Holiday.Add)
				holidays.DELETE("/:id", staff, h.Holiday.Remove)
				holidays.POST("/import", staff, h.Holiday.Import)
				holidays.GET("/backups", staff, h.Holiday.ListBackups)
				holidays.POST("/backups", staff, h.Holiday.Backup)
				holidays.POST("/restore", admin, h.Holiday.Restore)
			}

			reports := authorized.Group("/reports", staff)
			{
				reports.GET("/approved-hours", h.Report.ApprovedHours)
				reports.GET("/employees/:id", h.Report.EmployeeDetail)
			}

			export := authorized.Group("/export", staff)
			{
				export.GET("/approved-hours", h.Export.ApprovedHours)
			}

			authorized.POST("/maintenance/reset", admin, h.Maintenance.Reset)
		}
	}

	return r
}
