package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Services are the domain services behind the HTTP API.
type Services struct {
	Auth     service.IAuthService
	Users    service.IUserService
	Recipes  service.IRecipeService
	Toggles  service.IToggleService
	Shopping service.IShoppingService
	Catalog  service.ICatalogService
}

// Options tune the routes. Nil limiter disables recipe creation limits.
type Options struct {
	Pagination          Pagination
	RecipeCreateLimiter middleware.Limiter
	// Ping reports database health for /health.
	Ping func(ctx context.Context) error
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svc Services, opts Options) {
	registerValidators()

	router.GET("/health", healthCheck(opts.Ping))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.OptionalAuth(svc.Auth))

	var createMW []gin.HandlerFunc
	if opts.RecipeCreateLimiter != nil {
		createMW = append(createMW, middleware.RateLimit("recipe_create", opts.RecipeCreateLimiter))
	}

	NewRecipeHandler(svc.Recipes, svc.Toggles, svc.Shopping, opts.Pagination, createMW...).RegisterRoutes(api)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(api)
	NewUserHandler(svc.Users, opts.Pagination).RegisterRoutes(api)
	NewAuthHandler(svc.Auth).RegisterRoutes(api)
}

// healthCheck returns the health status of the API
func healthCheck(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
