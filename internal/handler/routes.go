package handler

import (
	"github.com/gin-gonic/gin"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
)

// Routes registers the whole HTTP API on r. loginLimit guards the
// credential endpoints per client IP.
func (h *Handler) Routes(r *gin.Engine, loginLimit *middleware.RateLimiter) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api")

	// public
	limited := api.Group("", middleware.Limit(loginLimit))
	limited.POST("/register", h.Register)
	limited.POST("/login", h.Login)
	limited.POST("/auth/refresh", h.Refresh)

	api.GET("/niches", h.ListNiches)
	api.GET("/categories", h.ListCategories)
	api.GET("/service-templates", h.ListServiceTemplates)
	api.GET("/providers", h.ListProviders)
	api.GET("/providers/:id/services", h.ProviderServices)
	api.GET("/providers/:id/availability", h.ProviderAvailability)
	api.GET("/providers/:id/reviews", h.ProviderReviews)
	api.GET("/providers/:id/whatsapp", h.WhatsAppLink)
	api.GET("/time-slots/available", h.AvailableSlots)
	api.POST("/webhooks/:gateway", h.Webhook)

	// any signed-in user
	authed := api.Group("", middleware.Authenticate(h.opts.Secret))
	authed.POST("/logout", h.Logout)
	authed.GET("/user", h.CurrentUser)
	authed.POST("/appointments", h.CreateAppointment)
	authed.GET("/appointments", h.ListAppointments)
	authed.GET("/appointments/:id", h.GetAppointment)
	authed.PATCH("/appointments/:id/status", h.UpdateAppointmentStatus)
	authed.POST("/appointments/:id/payment", h.CreatePayment)
	authed.POST("/appointments/:id/review", h.CreateReview)
	authed.GET("/notifications", h.ListNotifications)
	authed.POST("/notifications/read-all", h.MarkAllNotificationsRead)
	authed.POST("/notifications/:id/read", h.MarkNotificationRead)

	provider := authed.Group("/provider", middleware.RequireRole(model.RoleProvider))
	provider.GET("/services", h.MyServices)
	provider.POST("/services", h.CreateProviderService)
	provider.PUT("/services/:id", h.UpdateProviderService)
	provider.DELETE("/services/:id", h.DeleteProviderService)
	provider.PUT("/availability", h.ReplaceAvailability)
	provider.POST("/blocked-slots", h.CreateBlockedSlot)
	provider.DELETE("/blocked-slots/:id", h.DeleteBlockedSlot)
	provider.GET("/balance", h.Balance)
	provider.GET("/withdrawals", h.MyWithdrawals)
	provider.POST("/withdrawals", h.CreateWithdrawal)

	adminOnly := middleware.RequireRole(model.RoleAdmin)
	authed.POST("/niches", adminOnly, h.CreateNiche)
	authed.POST("/categories", adminOnly, h.CreateCategory)
	authed.POST("/service-templates", adminOnly, h.CreateServiceTemplate)

	admin := authed.Group("/admin", adminOnly)
	admin.GET("/withdrawals", h.AdminWithdrawals)
	admin.PATCH("/withdrawals/:id", h.UpdateWithdrawal)
	admin.GET("/users", h.ListUsers)
	admin.PATCH("/users/:id", h.UpdateUser)
}
