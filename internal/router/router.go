package router

import (
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/auth"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/config"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/handler"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/metrics"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/middleware"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Infra is what the composition root has already opened.
type Infra struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// APILimiter applies to every route, LoginLimiter to the login endpoints.
	// main owns them so it can run their purge loops.
	APILimiter   *middleware.Limiter
	LoginLimiter *middleware.Limiter
}

// Handlers groups the HTTP handlers mounted by Mount.
type Handlers struct {
	Stock     *handler.StockHandler
	Orders    *handler.OrdersHandler
	Companies *handler.CompaniesHandler
	Auth      *handler.AuthHandler
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, in Infra) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics(in.Metrics))
	if in.APILimiter != nil {
		r.Use(in.APILimiter.Middleware("too many requests"))
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(in.DB)
	stockRepo := repository.NewStockRepository(in.DB)
	movementRepo := repository.NewMovementRepository(in.DB)
	companyRepo := repository.NewCompanyRepository(in.DB)
	orderRepo := repository.NewOrderRepository(in.DB)
	staffRepo := repository.NewStaffUserRepository(in.DB)

	// ── Async notification ───────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(in.Redis)
	notifier := worker.NewOrderNotifier(dispatcher, cfg.PDFStoragePath, cfg.StaffNotifyEmail)

	// ── Services ─────────────────────────────────────────────────────────────
	issuer := auth.NewIssuer(cfg.StaffJWTSecret, cfg.CompanyJWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	stockSvc := service.NewStockService(productRepo, stockRepo, movementRepo, in.Metrics, cfg.StockMaxRetries)
	orderSvc := service.NewOrderService(orderRepo, companyRepo, productRepo, notifier, in.Metrics, cfg.NotifyTimeout)
	companySvc := service.NewCompanyService(companyRepo)
	authSvc := service.NewAuthService(staffRepo, companyRepo, issuer)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(in.DB, in.Redis))
	if in.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(in.Gatherer, promhttp.HandlerOpts{})))
	}

	Mount(r, Handlers{
		Stock:     handler.NewStockHandler(stockSvc),
		Orders:    handler.NewOrdersHandler(orderSvc),
		Companies: handler.NewCompaniesHandler(companySvc),
		Auth:      handler.NewAuthHandler(authSvc, cfg.IsProduction()),
	}, auth.NewTokenGate(issuer), in.LoginLimiter)

	// Swagger UI outside production only
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// Mount registers the /v1 API. Authorization is decided by the services from
// the resolved principal; RequireAuth only short-circuits anonymous callers
// on routes that never serve them.
func Mount(r *gin.Engine, h Handlers, gate *auth.Gate, loginLimiter *middleware.Limiter) {
	v1 := r.Group("/v1", middleware.Authenticate(gate))

	// Public
	login := []gin.HandlerFunc{}
	if loginLimiter != nil {
		login = append(login, loginLimiter.Middleware("too many login attempts, try again later"))
	}
	authGroup := v1.Group("/auth", login...)
	{
		authGroup.POST("/staff/login", h.Auth.StaffLogin)
		authGroup.POST("/b2b/login", h.Auth.CompanyLogin)
	}
	v1.POST("/auth/b2b/logout", h.Auth.CompanyLogout)
	v1.POST("/b2b/register", h.Companies.Register)

	protected := v1.Group("", middleware.RequireAuth())
	{
		// Staff only; companies get 403 from the service
		stock := protected.Group("/stock")
		{
			stock.GET("", h.Stock.List)
			stock.GET("/export", h.Stock.Export)
			stock.GET("/movements", h.Stock.ListMovements)
			stock.GET("/:product_id", h.Stock.Get)
			stock.POST("/:product_id/movements", h.Stock.ApplyMovement)
		}

		orders := protected.Group("/b2b/orders")
		{
			orders.POST("", h.Orders.Create)
			orders.GET("", h.Orders.List)
			orders.GET("/:id", h.Orders.Get)
			orders.PATCH("/:id", h.Orders.Update)
			orders.DELETE("/:id", h.Orders.Delete)
		}

		companies := protected.Group("/b2b/companies")
		{
			companies.GET("", h.Companies.List)
			companies.GET("/:id", h.Companies.Get)
			companies.PATCH("/:id", h.Companies.Update)
		}

		protected.GET("/tiers", h.Companies.Tiers)
	}
}
