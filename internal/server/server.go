package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	cartdomain "github.com/emploihub/emploihub/internal/cart/domain"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"github.com/emploihub/emploihub/internal/config"
	"github.com/emploihub/emploihub/internal/observability/logger"
	"github.com/emploihub/emploihub/internal/observability/metrics"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	quotadomain "github.com/emploihub/emploihub/internal/quota/domain"
	"github.com/emploihub/emploihub/internal/ratelimit"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log.Named("http"), m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	genID  *snowflake.Node

	balanceSvc      balancedomain.Service
	catalogSvc      catalogdomain.Service
	purchaseSvc     purchasedomain.Service
	subscriptionSvc subscriptiondomain.Service
	packSvc         packdomain.Service
	quotaSvc        quotadomain.Service
	usageSvc        usagedomain.Service
	paymentSvc      paymentdomain.Service
	cartSvc         cartdomain.Service
	auditSvc        auditdomain.Service

	usageLimiter *ratelimit.UsageLimiter
	metrics      *metrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	GenID *snowflake.Node

	BalanceSvc      balancedomain.Service
	CatalogSvc      catalogdomain.Service
	PurchaseSvc     purchasedomain.Service
	SubscriptionSvc subscriptiondomain.Service
	PackSvc         packdomain.Service
	QuotaSvc        quotadomain.Service
	UsageSvc        usagedomain.Service
	PaymentSvc      paymentdomain.Service
	CartSvc         cartdomain.Service
	AuditSvc        auditdomain.Service

	UsageLimiter *ratelimit.UsageLimiter `optional:"true"`
	Metrics      *metrics.Metrics
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		log:    p.Log.Named("server"),
		genID:  p.GenID,

		balanceSvc:      p.BalanceSvc,
		catalogSvc:      p.CatalogSvc,
		purchaseSvc:     p.PurchaseSvc,
		subscriptionSvc: p.SubscriptionSvc,
		packSvc:         p.PackSvc,
		quotaSvc:        p.QuotaSvc,
		usageSvc:        p.UsageSvc,
		paymentSvc:      p.PaymentSvc,
		cartSvc:         p.CartSvc,
		auditSvc:        p.AuditSvc,

		usageLimiter: p.UsageLimiter,
		metrics:      p.Metrics,
	}
}

func registerRoutes(s *Server) {
	api := s.engine.Group("/api/v1")
	{
		api.GET("/catalog", s.listCatalog)

		api.POST("/purchases", s.createPurchase)
		api.GET("/purchases/:id", s.getPurchase)
		api.POST("/purchases/:id/proof", s.attachProof)
		api.POST("/purchases/:id/cancel", s.cancelPurchase)

		accounts := api.Group("/accounts/:id")
		{
			accounts.GET("/balance", s.getBalance)
			accounts.GET("/transactions", s.listTransactions)
			accounts.GET("/purchases", s.listPurchases)
			accounts.GET("/subscriptions", s.listSubscriptions)
			accounts.GET("/packs", s.listPacks)
			accounts.GET("/usage", s.listUsage)
			accounts.POST("/usage", s.UsageRateLimit(), s.consumeUsage)
		}

		carts := api.Group("/carts/:recruiter_id")
		{
			carts.GET("", s.listCart)
			carts.POST("/items", s.addCartItem)
			carts.DELETE("/items/:item_id", s.removeCartItem)
			carts.POST("/convert", s.convertCart)
		}
	}

	s.engine.POST("/webhooks/:provider", s.handleWebhook)

	admin := s.engine.Group("/admin/v1", s.AdminRequired())
	{
		admin.GET("/catalog", s.adminListCatalog)
		admin.POST("/catalog", s.adminCreateCatalog)
		admin.PATCH("/catalog/:id", s.adminUpdateCatalog)
		admin.DELETE("/catalog/:id", s.adminDeactivateCatalog)

		admin.POST("/purchases/:id/complete", s.adminCompletePurchase)
		admin.POST("/purchases/:id/reject", s.adminRejectPurchase)

		admin.POST("/subscriptions/:id/approve", s.adminApproveSubscription)
		admin.POST("/subscriptions/:id/reject", s.adminRejectSubscription)
		admin.POST("/subscriptions/:id/cancel", s.adminCancelSubscription)

		admin.POST("/accounts/:id/balance", s.adminAdjustBalance)
		admin.GET("/audit", s.adminListAudit)
	}
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
