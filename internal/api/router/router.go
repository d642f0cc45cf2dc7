package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cleanbook/backend/config"
	"cleanbook/backend/internal/api/handler"
	"cleanbook/backend/internal/api/middleware"
	"cleanbook/backend/pkg/jwt"
	"cleanbook/backend/pkg/metrics"
	"cleanbook/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// m 为 nil 时不注册 HTTP 指标与 /metrics
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil && cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger))
	}
	{
		adminOnly := middleware.RoleAuth("admin")
		adminOrStaff := middleware.RoleAuth("admin", "staff")

		// 可用时段
		v1.POST("/availability", adminOnly, h.Availability.CreateSlot)
		v1.PUT("/availability/:id", adminOnly, h.Availability.UpdateSlot)
		v1.DELETE("/availability/:id", adminOnly, h.Availability.DeleteSlot)

		// 保洁员
		staff := v1.Group("/staff")
		{
			staff.GET("/available", h.Staff.GetAvailableStaff)
			staff.GET("/:id/availability", h.Availability.ListForStaff)
			staff.GET("/:id/calendar.ics", adminOrStaff, h.Export.StaffCalendar)
		}

		// 排班
		schedules := v1.Group("/schedules")
		{
			schedules.GET("", adminOrStaff, h.Schedule.ListSchedules)
			schedules.GET("/:id", adminOrStaff, h.Schedule.GetSchedule)
			schedules.POST("", adminOnly, h.Schedule.CreateSchedule)
			schedules.PUT("/:id", adminOnly, h.Schedule.UpdateSchedule)
			schedules.DELETE("/:id", adminOnly, h.Schedule.DeleteSchedule)
			schedules.POST("/:id/start", adminOrStaff, h.Schedule.StartSchedule)
			schedules.POST("/:id/complete", adminOrStaff, h.Schedule.CompleteSchedule)
			schedules.PUT("/:id/status", adminOnly, h.Schedule.UpdateScheduleStatus)
		}

		// 预约
		bookings := v1.Group("/bookings")
		{
			bookings.GET("/:id/primary-schedule", h.Schedule.GetPrimarySchedule)
			bookings.POST("/:id/month-schedules", adminOnly, h.Recurrence.CreateMonthSchedules)
			bookings.GET("/:id/month-schedules", h.Recurrence.ListMonthSchedules)
			bookings.GET("/:id/next-occurrence", h.Recurrence.NextOccurrenceForBooking)
		}

		// 循环规则
		v1.PUT("/month-schedules/:id/skip", adminOnly, h.Recurrence.SkipMonthSchedule)
		v1.GET("/recurrence/next", h.Recurrence.NextOccurrence)

		// 导出
		v1.GET("/export/schedules", adminOnly, h.Export.ExportSchedules)
	}

	return r
}
