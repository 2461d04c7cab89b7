package router

import (
	"time"

	"bullex/config"
	"bullex/internal/handler"
	"bullex/internal/middleware"
	"bullex/internal/repository"
	"bullex/internal/service"
	"bullex/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, gateway payment.Gateway) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// gin trusts every peer's X-Forwarded-For by default, which would let
	// callers spoof ClientIP for rate limiting
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLog())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settleRepo := repository.NewSettlementRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	engine := service.NewReconciler(orderRepo, settleRepo, auditRepo)
	authSvc := service.NewAuthService(userRepo, &cfg.JWT)
	depositSvc := service.NewDepositService(orderRepo, gateway, engine, cfg.WinPay.NotifyBase, cfg.WinPay.ReturnURL)
	payoutSvc := service.NewPayoutService(orderRepo, userRepo, settleRepo, gateway, engine, cfg.WinPay.NotifyBase)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	depositHandler := handler.NewDepositHandler(depositSvc)
	payoutHandler := handler.NewPayoutHandler(payoutSvc)
	walletHandler := handler.NewWalletHandler(userRepo)
	webhookHandler := handler.NewWebhookHandler(gateway, engine, auditRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		deposits := api.Group("/deposits")
		deposits.Use(authMw)
		{
			deposits.POST("", depositHandler.Create)
			deposits.GET("/:orderID", depositHandler.Status)
		}

		payouts := api.Group("/payouts")
		payouts.Use(authMw)
		{
			payouts.POST("", payoutHandler.Create)
			payouts.GET("/balance", payoutHandler.Balance)
			payouts.GET("/:orderID", payoutHandler.Status)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/wallet", walletHandler.Me)
			me.GET("/deposits", depositHandler.List)
			me.GET("/payouts", payoutHandler.List)
		}

		// callbacks pass the source gate and their own rate limiter before
		// any body handling
		webhooks := api.Group("/webhooks/winpay")
		webhooks.Use(
			middleware.SourceAllowList(cfg.Webhook.AllowedSources),
			middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.Webhook.RateLimit, cfg.Webhook.RateWindow)),
		)
		{
			webhooks.POST("/deposit", webhookHandler.Deposit)
			webhooks.POST("/payout", webhookHandler.Payout)
		}
	}

	return r
}
