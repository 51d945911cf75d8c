package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"

	"github.com/SscSPs/fx_quote_engine/cmd/docs"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
	"github.com/SscSPs/fx_quote_engine/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// lockLimiter may be nil, in which case quote locking is not rate limited.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	lockLimiter *limiter.Limiter,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/", getHome)

	setupAPIV1Routes(r, services, lockLimiter)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(r *gin.Engine, services *portssvc.ServiceContainer, lockLimiter *limiter.Limiter) {
	v1 := r.Group("/api/v1")

	var lockMiddleware []gin.HandlerFunc
	if lockLimiter != nil {
		lockMiddleware = append(lockMiddleware, middleware.RateLimit(lockLimiter))
	}

	RegisterQuoteRoutes(v1, services.RateCalculator, services.QuoteLock, lockMiddleware...)
	RegisterOrderRoutes(v1, services.Order)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
