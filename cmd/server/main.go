package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/edumitra/entitlements/internal/api"
	cronapi "github.com/edumitra/entitlements/internal/api/cron"
	v1 "github.com/edumitra/entitlements/internal/api/v1"
	"github.com/edumitra/entitlements/internal/checkout"
	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/repository/dynamo"
	"github.com/edumitra/entitlements/internal/service"
	"github.com/edumitra/entitlements/internal/tutor"
	"github.com/edumitra/entitlements/internal/types"
	"github.com/edumitra/entitlements/internal/validator"
)

// @title EduMitra Entitlements API
// @version 1.0
// @description Subscription, feature access and coupon service
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	_ = godotenv.Load()

	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Storage
			dynamo.NewClient,

			// Repositories
			dynamo.NewEntitlementRepository,
			dynamo.NewUsageRepository,
			dynamo.NewCouponRepository,
			dynamo.NewRedemptionRepository,
			dynamo.NewPaymentRepository,

			// External collaborators
			checkout.NewRazorpayClient,
			tutor.NewClient,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewEntitlementService,
			service.NewFeatureAccessService,
			service.NewCouponService,
			service.NewCouponValidationService,
			service.NewPaymentService,
			service.NewSweeperService,
			service.NewTutorService,
		),
	)

	// API surface
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	entitlementService service.EntitlementService,
	accessService service.FeatureAccessService,
	couponService service.CouponService,
	validationService service.CouponValidationService,
	paymentService service.PaymentService,
	sweeperService service.SweeperService,
	tutorService service.TutorService,
	checkoutClient checkout.Client,
) api.Handlers {
	return api.Handlers{
		Health:          v1.NewHealthHandler(),
		Entitlement:     v1.NewEntitlementHandler(entitlementService, logger),
		Feature:         v1.NewFeatureHandler(accessService, logger),
		Coupon:          v1.NewCouponHandler(couponService, validationService, logger),
		Payment:         v1.NewPaymentHandler(paymentService, checkoutClient, logger),
		Tutor:           v1.NewTutorHandler(tutorService, logger),
		EntitlementCron: cronapi.NewEntitlementCronHandler(sweeperService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	sweeperService service.SweeperService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startSweeperSchedule(lc, cfg, sweeperService, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeSweeper:
		startSweeperSchedule(lc, cfg, sweeperService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startSweeperSchedule(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	sweeperService service.SweeperService,
	log *logger.Logger,
) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Entitlement.SweepSchedule, func() {
		if _, err := sweeperService.SweepExpired(context.Background()); err != nil {
			log.Errorw("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		log.Fatalf("Invalid sweep schedule %q: %v", cfg.Entitlement.SweepSchedule, err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting expiry sweeper", "schedule", cfg.Entitlement.SweepSchedule)
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := scheduler.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}
