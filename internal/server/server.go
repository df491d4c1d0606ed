package server

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"codecollab-backend/internal/cache"
	"codecollab-backend/internal/config"
	"codecollab-backend/internal/coordinator"
	"codecollab-backend/internal/handler"
	"codecollab-backend/internal/hub"
	"codecollab-backend/internal/store"
	"codecollab-backend/internal/translate"
)

// Server wraps the Fiber app and wires handlers to their dependencies.
type Server struct {
	app              *fiber.App
	cfg              *config.Config
	log              *zap.SugaredLogger
	roomHandler      *handler.RoomHandler
	translateHandler *handler.TranslateHandler
	healthHandler    *handler.HealthHandler
	wsHandler        *handler.WSHandler
}

// New builds the server and its full dependency graph.
func New(cfg *config.Config, db *gorm.DB, translationCache *cache.TranslationCache, provider translate.Provider, log *zap.SugaredLogger) *Server {
	app := fiber.New(fiber.Config{
		AppName:       "CodeCollab Backend",
		ServerHeader:  "Fiber",
		StrictRouting: false,
		CaseSensitive: true,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		// Prefork is incompatible with in-process websocket room state.
		Prefork: false,
	})

	roomStore := store.NewGormRoomStore(db, log)
	roomHub := hub.New(log)
	coord := coordinator.New(roomStore, translationCache, provider, roomHub, cfg.Pipeline, log)

	return &Server{
		app:              app,
		cfg:              cfg,
		log:              log,
		roomHandler:      handler.NewRoomHandler(roomStore, cfg.App.BaseURL, log),
		translateHandler: handler.NewTranslateHandler(provider, translationCache, log),
		healthHandler:    handler.NewHealthHandler(db, translationCache, cfg.Translate.Enabled),
		wsHandler:        handler.NewWSHandler(coord, log),
	}
}

// SetupMiddleware installs recovery, request logging, and CORS.
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
}

// SetupRoutes installs the REST and websocket routes.
func (s *Server) SetupRoutes() {
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// translation endpoints hit a paid provider; rate limit per IP
	translateLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	rooms := s.app.Group("/api/rooms")
	rooms.Post("/", s.roomHandler.CreateRoom)
	rooms.Get("/:roomId", s.roomHandler.GetRoom)
	rooms.Post("/:roomId/join", s.roomHandler.JoinRoom)
	rooms.Post("/:roomId/leave", s.roomHandler.LeaveRoom)
	rooms.Get("/:roomId/translations", s.translateHandler.History)

	s.app.Post("/api/translate", translateLimiter, s.translateHandler.Translate)
	s.app.Post("/api/translate/batch", translateLimiter, s.translateHandler.TranslateBatch)

	s.app.Use("/ws", s.wsHandler.Upgrade)
	s.app.Get("/ws", websocket.New(s.wsHandler.Serve, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start runs the server with graceful shutdown on SIGINT/SIGTERM.
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		s.log.Info("[Server] Shutting down")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			s.log.Errorf("[Server] Shutdown error: %v", err)
		}
	}()

	s.log.Infof("[Server] Listening on %s", s.cfg.Server.Port)
	s.log.Infof("[Server] WebSocket endpoint: ws://localhost%s/ws", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
