package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
}

// New wires services, storage and routes. redisClient may be nil, in which
// case token revocation and rate limits are kept in process.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	enforcer, err := authz.NewEnforcer("")
	if err != nil {
		return nil, err
	}

	var tokens service.TokenStore = service.NewMemoryTokenStore()
	if redisClient != nil {
		tokens = service.NewRedisTokenStore(redisClient)
	}

	images, mediaDir, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	svc := api.Services{
		Auth:     service.NewAuthService(db, enforcer, tokens, cfg.JWT.Secret, cfg.JWT.TTL),
		Users:    service.NewUserService(db, enforcer),
		Recipes:  service.NewRecipeService(db, enforcer, images),
		Toggles:  service.NewToggleService(db, enforcer),
		Shopping: service.NewShoppingService(db, enforcer),
		Catalog:  service.NewCatalogService(db, enforcer),
	}

	r := router.SetupRouter(svc, router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MediaDir:       mediaDir,
		API: api.Options{
			Pagination: api.Pagination{
				PageSize: cfg.Pagination.PageSize,
				MaxSize:  cfg.Pagination.MaxSize,
			},
			RecipeCreateLimiter: middleware.NewRecipeCreationLimiter(redisClient, cfg.RateLimit.RecipeCreatesPerHour),
			Ping: func(ctx context.Context) error {
				return database.HealthCheck(ctx, db)
			},
		},
	})

	s := &Server{cfg: cfg, router: r}
	s.http = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// newImageStore returns the configured store and, for local storage, the
// directory to serve under /media.
func newImageStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, string, error) {
	switch cfg.Driver {
	case config.StorageS3:
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return storage.NewS3Store(s3cfg.Client, s3cfg.BucketName, s3cfg.ObjectURL), "", nil
	case config.StorageLocal, "":
		local, err := storage.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Handler is the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return middleware.StripTrailingSlash(s.router)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info().Msg("shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
