package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/middleware"
	"github.com/playpulse/playpulse-api/internal/models"
)

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health         *HealthHandler
	Auth           *AuthHandler
	Institutes     *InstituteHandler
	Programs       *ProgramHandler
	Coaches        *CoachHandler
	Enrollments    *EnrollmentHandler
	Events         *EventHandler
	Schedules      *ScheduleHandler
	Activity       *ActivityHandler
	Gamification   *GamificationHandler
	Notifications  *NotificationHandler
	Chat           *ChatHandler
	Media          *MediaHandler
	Reviews        *ReviewHandler
	CoachDashboard *CoachDashboardHandler
}

// RouterConfig toggles optional routes.
type RouterConfig struct {
	APIPrefix string
	// DemoPayments mounts the unverified gateway checkout.
	DemoPayments bool
}

// RegisterRoutes mounts the public API on r.
func RegisterRoutes(r *gin.Engine, tokens TokenValidator, h Handlers, cfg RouterConfig) {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	requireAuth := middleware.JWT(tokens)

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/uploads/*key", h.Media.Image)
	api.GET("/materials/download/:token", h.Media.DownloadMaterial)
	api.GET("/parent/payment-success", h.Enrollments.PaymentSuccess)
	api.GET("/chat/ws", middleware.JWTWithQuery(tokens), h.Chat.Socket)
	api.PUT("/notifications/:id/read", requireAuth, h.Notifications.MarkRead)

	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/verify-reset-code", h.Auth.VerifyResetCode)
	auth.POST("/reset-password", h.Auth.ResetPassword)
	auth.GET("/profile", requireAuth, h.Auth.Profile)
	auth.PUT("/profile", requireAuth, h.Auth.UpdateProfile)

	owner := api.Group("/owner", requireAuth, middleware.RequireRoles(models.RoleOwner))
	owner.GET("/profile", h.Institutes.Profile)
	owner.PUT("/profile", h.Institutes.SaveProfile)
	owner.GET("/programs", h.Programs.List)
	owner.POST("/programs", h.Programs.Create)
	owner.PUT("/programs/:id", h.Programs.Update)
	owner.DELETE("/programs/:id", h.Programs.Delete)
	owner.GET("/coaches", h.Coaches.List)
	owner.POST("/coaches", h.Coaches.Create)
	owner.PUT("/coaches/:id", h.Coaches.Update)
	owner.PUT("/coaches/:id/toggle-status", h.Coaches.ToggleStatus)
	owner.GET("/enrollments", h.Enrollments.ListForOwner)
	owner.GET("/enrollments/:id", h.Enrollments.GetForOwner)
	owner.GET("/enrollments/:id/details", h.Enrollments.GetForOwner)
	owner.PUT("/enrollments/:id/decision", h.Enrollments.Decide)
	owner.GET("/events", h.Events.List)
	owner.POST("/events", h.Events.Create)
	owner.PUT("/events/:id", h.Events.Update)
	owner.DELETE("/events/:id", h.Events.Delete)
	owner.GET("/events/:id/enrollments", h.Events.Enrollments)

	parent := api.Group("/parent", requireAuth, middleware.RequireRoles(models.RoleParent))
	parent.GET("/institutes", h.Institutes.Search)
	parent.GET("/programs/:instituteId", h.Institutes.Programs)
	parent.GET("/owner", h.Institutes.Owners)
	parent.POST("/enroll", h.Enrollments.Create)
	parent.POST("/payment", h.Enrollments.ProcessPayment)
	if cfg.DemoPayments {
		parent.POST("/initiate-payment", h.Enrollments.InitiatePayment)
	}
	parent.GET("/enrollments", h.Enrollments.ListForParent)
	parent.GET("/calendar-events", h.Schedules.ParentCalendar)
	parent.GET("/attendance/:enrollmentId", h.Activity.Attendance)
	parent.GET("/progress/:enrollmentId", h.Activity.Progress)
	parent.GET("/gamification", h.Gamification.Summary)
	parent.GET("/notifications", h.Notifications.List)
	parent.POST("/chat-message", h.Chat.Send)
	parent.GET("/chat-messages", h.Chat.List)
	parent.GET("/materials/:programId", h.Media.ParentMaterials)
	parent.POST("/reviews", h.Reviews.Create)
	parent.GET("/reviews/:programId", h.Reviews.List)
	parent.GET("/events", h.Events.Upcoming)
	parent.POST("/event-enroll", h.Events.Enroll)

	coach := api.Group("/coach", requireAuth, middleware.RequireRoles(models.RoleCoach))
	coach.GET("/dashboard", h.CoachDashboard.Dashboard)
	coach.GET("/student/:enrollmentId", h.CoachDashboard.StudentDetails)
	coach.POST("/schedule", h.Schedules.Upsert)
	coach.GET("/schedule", h.Schedules.ListForCoach)
	coach.GET("/calendar-events", h.Schedules.CoachCalendar)
	coach.POST("/attendance", h.Activity.RecordAttendance)
	coach.GET("/attendance/:enrollmentId", h.Activity.Attendance)
	coach.POST("/progress", h.Activity.RecordProgress)
	coach.GET("/progress/:enrollmentId", h.Activity.Progress)
	coach.GET("/progress/:enrollmentId/report", h.Activity.ProgressReport)
	coach.POST("/gamification", h.Gamification.Award)
	coach.POST("/reward", h.Gamification.SetReward)
	coach.POST("/notification", h.Notifications.Send)
	coach.GET("/notifications", h.Notifications.List)
	coach.POST("/chat-message", h.Chat.Send)
	coach.GET("/chat-messages", h.Chat.List)
	coach.POST("/training-material", h.Media.UploadMaterial)
}
