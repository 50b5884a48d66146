// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"almanac/internal/config"
	"almanac/internal/database"
	"almanac/internal/fallback"
	"almanac/internal/featureflags"
	"almanac/internal/kv"
	"almanac/internal/localcache"
	"almanac/internal/middleware"
	"almanac/internal/models"
	"almanac/internal/notifications"
	"almanac/internal/repository"
	"almanac/internal/service"
	"almanac/internal/storage"
	"almanac/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	clientRepo repository.ClientRepository
	postRepo   repository.PostRepository
	fb         *fallback.Store
	posts      store.PostStore

	hub  *notifications.Hub
	feed *notifications.Feed

	featureFlags    *featureflags.Manager
	uploads         *storage.LocalStorage
	postService     *service.PostService
	clientService   *service.ClientService
	shareService    *service.ShareService
	settingsService *service.SettingsService
	imageService    *service.ImageService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize the remote document store; an unreachable Redis degrades the
	// fallback layer to cache-only rather than failing startup.
	var remote kv.Store
	var redisClient *redis.Client
	if rs, rerr := kv.Connect(cfg.RedisURL); rerr != nil {
		log.Printf("WARNING: document store unavailable, running cache-only: %v", rerr)
	} else {
		remote = rs
		redisClient = rs.Client()
	}

	cache, err := localcache.NewFileCache(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("local cache init failed: %w", err)
	}

	return newServer(cfg, db, remote, redisClient, cache)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, remote kv.Store, redisClient *redis.Client, cache localcache.Cache) (*Server, error) {
	return newServer(cfg, db, remote, redisClient, cache)
}

func newServer(cfg *config.Config, db *gorm.DB, remote kv.Store, redisClient *redis.Client, cache localcache.Cache) (*Server, error) {
	middleware.InitMiddleware(cfg)

	// Initialize repositories and the fallback layer
	clientRepo := repository.NewClientRepository(db)
	postRepo := repository.NewPostRepository(db)
	fb := fallback.New(remote, cache)
	posts := store.ForConfig(cfg, postRepo, fb)

	// Initialize Prometheus metrics
	prom := middleware.InitMetrics("almanac-api")

	uploads, err := storage.NewLocalStorage(cfg.ImageUploadDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("upload storage init failed: %w", err)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		clientRepo:     clientRepo,
		postRepo:       postRepo,
		fb:             fb,
		posts:          posts,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		uploads:        uploads,
	}

	server.postService = service.NewPostService(posts)
	server.clientService = service.NewClientService(clientRepo, posts, fb)
	server.shareService = service.NewShareService(clientRepo, server.postService, fb,
		cfg.JWTSecret, time.Duration(cfg.ShareTokenTTLMin)*time.Minute)
	server.settingsService = service.NewSettingsService(fb)
	server.imageService = service.NewImageService(uploads, cfg)

	// The share feed only makes sense with a push channel behind it; without
	// Redis the endpoint still works, clients just poll.
	server.hub = notifications.NewHub()
	server.feed = notifications.NewFeed(server.hub, fb)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and Client ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Almanac Metrics Dashboard",
	}))

	// Uploaded post attachments
	app.Static("/uploads", s.uploads.Dir())

	// Operator auth
	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", middleware.AuthRequired, s.Me)

	// Protected dashboard routes
	protected := api.Group("", middleware.AuthRequired)

	clients := protected.Group("/clients")
	clients.Get("/", s.GetClients)
	clients.Post("/", s.CreateClient)
	clients.Get("/:clientId/posts", s.GetClientPosts)
	clients.Post("/:clientId/posts", s.CreatePost)
	clients.Get("/:clientId/posts/:postId", s.GetPost)
	clients.Put("/:clientId/posts/:postId", s.UpdatePost)
	clients.Delete("/:clientId/posts/:postId", s.DeletePost)
	clients.Post("/:clientId/posts/:postId/toggle", s.ToggleCompleted)
	clients.Put("/:clientId/posts/:postId/notes", s.UpdateNotes)
	clients.Post("/:clientId/posts/:postId/images", s.UploadPostImage)
	clients.Delete("/:clientId/posts/:postId/images/:index", s.RemovePostImage)
	clients.Post("/:clientId/activate", s.ActivateClient)
	clients.Post("/:clientId/deactivate", s.DeactivateClient)
	clients.Get("/:clientId", s.GetClient)
	clients.Put("/:clientId", s.UpdateClient)
	clients.Delete("/:clientId", s.DeleteClient)

	protected.Get("/settings", s.GetSettings)
	protected.Put("/settings", s.SaveSettings)
	protected.Get("/feature-flags", s.GetFeatureFlags)

	// Public share-view routes: password verification issues a short-lived
	// token scoped to one client; everything else on the share surface
	// requires it. /client-view is the legacy share-link path, kept so
	// links handed out before the rename keep working.
	for _, prefix := range []string{"/shared/client/:clientId", "/client-view/:clientId"} {
		shared := api.Group(prefix)
		shared.Post("/verify", middleware.RateLimit(
			s.redis, 5, 5*time.Minute, "share_verify"), s.VerifySharePassword)
		shared.Get("/", middleware.ShareAuthRequired, s.GetSharedClient)
		shared.Get("/posts", middleware.ShareAuthRequired, s.GetSharedPosts)
	}

	// Live share-view calendar updates
	app.Get("/ws/shared/:clientId", middleware.ShareAuthRequired, s.ShareFeedHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The document store is
// reported but never fails readiness: the fallback policy keeps the app
// serving from the local cache when Redis is down.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	docStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			docStatus = "degraded"
		}
	} else {
		docStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if s.config.PersistenceBackend == config.BackendRelational && dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  overallStatus,
		"backend": s.config.PersistenceBackend,
		"checks": fiber.Map{
			"database":       dbStatus,
			"document_store": docStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Almanac API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.feed.Start(s.shutdownCtx)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Release the pub/sub subscription and close share-view connections.
	s.feed.Stop()

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
