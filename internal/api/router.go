package api

import (
	"github.com/gin-gonic/gin"

	"github.com/edumitra/entitlements/internal/api/cron"
	v1 "github.com/edumitra/entitlements/internal/api/v1"
	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/rest/middleware"
)

type Handlers struct {
	Health          *v1.HealthHandler
	Entitlement     *v1.EntitlementHandler
	Feature         *v1.FeatureHandler
	Coupon          *v1.CouponHandler
	Payment         *v1.PaymentHandler
	Tutor           *v1.TutorHandler
	EntitlementCron *cron.EntitlementCronHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.TimeoutMiddleware(cfg.Server.RequestTimeout),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers, cfg, logger)

	cronGroup := router.Group("/cron", middleware.AdminAuthMiddleware(cfg, logger))
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers, cfg *config.Configuration, logger *logger.Logger) {
	// The webhook authenticates itself through its HMAC signature, not a
	// bearer token
	router.POST("/webhooks/razorpay", handlers.Payment.HandleWebhook)

	authenticated := router.Group("", middleware.AuthenticateMiddleware(cfg, logger))
	{
		entitlements := authenticated.Group("/entitlements")
		{
			entitlements.GET("/me", handlers.Entitlement.GetMyEntitlement)
			entitlements.POST("/trial", handlers.Entitlement.StartTrial)
		}

		features := authenticated.Group("/features")
		{
			features.GET("/:feature/access", handlers.Feature.CheckAccess)
			features.GET("/:feature/usage", handlers.Feature.GetUsage)
			features.POST("/:feature/usage", handlers.Feature.UseFeature)
		}

		authenticated.POST("/coupons/:code/validate", handlers.Coupon.ValidateCoupon)
		authenticated.POST("/orders", handlers.Payment.CreateOrder)
		authenticated.POST("/tutor/ask", handlers.Tutor.Ask)
	}

	admin := router.Group("/admin", middleware.AdminAuthMiddleware(cfg, logger))
	{
		coupons := admin.Group("/coupons")
		{
			coupons.POST("", handlers.Coupon.CreateCoupon)
			coupons.GET("", handlers.Coupon.ListCoupons)
			coupons.GET("/:code", handlers.Coupon.GetCoupon)
			coupons.PUT("/:code", handlers.Coupon.UpdateCoupon)
			coupons.DELETE("/:code", handlers.Coupon.DeleteCoupon)
		}

		entitlements := admin.Group("/entitlements")
		{
			entitlements.POST("/:account_id/grace", handlers.Entitlement.StartGrace)
			entitlements.POST("/:account_id/downgrade", handlers.Entitlement.DowngradeToFree)
			entitlements.POST("/:account_id/trial-override", handlers.Entitlement.OverrideTrial)
		}
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	entitlements := router.Group("/entitlements")
	{
		entitlements.POST("/sweep", handlers.EntitlementCron.SweepExpired)
	}
}
