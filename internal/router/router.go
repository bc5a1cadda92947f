package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Options lists what the router needs besides the services.
type Options struct {
	AllowedOrigins []string
	// MediaDir is served at /media when images are stored locally.
	MediaDir string
	API      api.Options
}

// SetupRouter configures the application routes
func SetupRouter(svc api.Services, opts Options) *gin.Engine {
	router := gin.New()
	// Trailing slashes are stripped before routing.
	router.RedirectTrailingSlash = false

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
		middleware.Metrics(),
		middleware.CORS(opts.AllowedOrigins),
	)

	if opts.MediaDir != "" {
		router.Static("/media", opts.MediaDir)
	}

	api.RegisterRoutes(router, svc, opts.API)
	return router
}
