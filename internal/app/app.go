// Package app wires configuration, infrastructure and the billing module
// into a runnable application.
package app

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loopbill/server/internal/infra/events"
	"github.com/loopbill/server/internal/module/billing"
	"github.com/loopbill/server/internal/module/billing/gateway"
	sharedcache "github.com/loopbill/server/internal/shared/cache"
	"github.com/loopbill/server/internal/shared/config"
	"github.com/loopbill/server/internal/shared/database"
	"github.com/loopbill/server/internal/shared/lock"
	"github.com/loopbill/server/internal/shared/logger"
	"github.com/loopbill/server/internal/shared/middleware"
	"github.com/loopbill/server/internal/utils/metrics"
)

// App holds the wired application.
type App struct {
	config *config.Config
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine
	logger *zap.Logger

	eventBus *events.Bus
	metrics  *metrics.Metrics

	billingHandler *billing.Handler
	billingService billing.ServiceInterface
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.New("loopbill"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := billing.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate billing tables: %w", err)
	}

	// Redis backs the per-billable advisory lock. Without it, subscription
	// mutations are still correct but no longer serialized across replicas.
	var locker billing.Locker = billing.NoopLocker()
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, billing locks disabled", zap.Error(err))
		} else {
			app.redis = redisClient
			locker = lock.NewRedisLocker(redisClient, cfg.Billing.LockTTL)
		}
	}

	app.eventBus = events.NewBus(log)

	if err := app.initBilling(locker); err != nil {
		return nil, fmt.Errorf("init billing module: %w", err)
	}

	app.router = app.setupRouter()
	return app, nil
}

// initBilling builds the billing module from configuration.
func (a *App) initBilling(locker billing.Locker) error {
	catalog, err := buildCatalog(a.config.Billing.Products)
	if err != nil {
		return err
	}

	repo := billing.NewRepository(a.db)
	gw := gateway.NewStripeGateway(&gateway.StripeConfig{APIKey: a.config.Stripe.APIKey})

	a.billingService = billing.NewService(
		repo,
		gw,
		catalog,
		a.eventBus,
		locker,
		billing.Config{
			SkipTrialIfSubscribedBefore: a.config.Billing.SkipTrialIfSubscribedBefore,
		},
		a.logger,
		a.metrics,
	)
	a.billingHandler = billing.NewHandler(a.billingService)
	return nil
}

// buildCatalog converts product configuration into the validated catalog.
func buildCatalog(products []config.ProductConfig) (*billing.Catalog, error) {
	built := make([]*billing.Product, 0, len(products))
	for _, pc := range products {
		plans := make([]*billing.Plan, 0, len(pc.Plans))
		for _, plan := range pc.Plans {
			plans = append(plans, &billing.Plan{
				ID:            plan.ID,
				Name:          plan.Name,
				StripePriceID: plan.StripePriceID,
				TrialDays:     plan.TrialDays,
				Active:        plan.Active,
			})
		}
		built = append(built, &billing.Product{
			Type:           billing.ProductType(pc.Type),
			ChargesPerSeat: pc.ChargesPerSeat,
			Plans:          plans,
		})
	}
	return billing.NewCatalog(built...)
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(a.config.Auth.JWTSecret))
	a.billingHandler.RegisterRoutes(api)

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases application resources.
func (a *App) Stop() {
	if a.redis != nil {
		if err := sharedcache.Close(a.redis); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
