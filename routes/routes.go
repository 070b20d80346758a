package routes

import (
	"net/http"
	"time"

	"reserva/handlers"
	"reserva/middleware"
	"reserva/models"
	"reserva/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the wired handlers route registration needs.
type HandlerBundle struct {
	Reservations *handlers.ReservationHandler
	Admin        *handlers.AdminReservationHandler
	Rules        *handlers.RuleHandler
	Webhook      *handlers.PaymentWebhookHandler
}

// Register wires up all API routes.
func Register(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	// Gateway callbacks authenticate by signature, not by bearer token.
	r.POST("/api/v1/payments/webhook", hb.Webhook.Receive)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware())
	api.Use(middleware.ActorMiddleware())
	{
		api.POST("/reservations", hb.Reservations.Create)
		api.GET("/reservations/:id", hb.Reservations.Get)
		api.POST("/reservations/:id/cancel", hb.Reservations.Cancel)
		api.GET("/reservations/:id/history", hb.Reservations.History)
		api.GET("/reservations/:id/voucher", hb.Reservations.Voucher)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/reservations", hb.Admin.ListByAsset)
			admin.POST("/reservations", hb.Admin.Create)
			admin.POST("/reservations/:id/approve", hb.Admin.Approve)
			admin.POST("/reservations/:id/reject", hb.Admin.Reject)
			admin.POST("/reservations/:id/confirm-price", hb.Admin.ConfirmPrice)
		}

		rules := api.Group("/rules")
		rules.Use(middleware.RequireRoles(models.RolePartner, models.RoleMaster))
		{
			rules.GET("", hb.Rules.List)
			rules.POST("", hb.Rules.Create)
			rules.PUT("/:id", hb.Rules.Update)
			rules.DELETE("/:id", hb.Rules.Delete)
		}
	}
}
