package server

import (
	"log"
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
	"gorm.io/gorm"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/ai"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/auth"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/cache"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/config"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/handler"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/render"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/service"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/store"
)

// Server Fiber 서버 래퍼
type Server struct {
	app            *fiber.App
	cfg            *config.Config
	db             *gorm.DB
	redis          *cache.RedisClient
	jwtManager     *auth.JWTManager
	authHandler    *handler.AuthHandler
	boardHandler   *handler.BoardHandler
	shareHandler   *handler.ShareHandler
	healthHandler  *handler.HealthHandler
	boardWSHandler *handler.BoardWSHandler
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB, redisClient *cache.RedisClient) *Server {
	app := fiber.New(fiber.Config{
		AppName:        "Collaborative Board API",
		ServerHeader:   "Fiber",
		StrictRouting:  true,
		CaseSensitive:  true,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		Prefork:        false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize: 16384,
		BodyLimit:      10 * 1024 * 1024, // 10MB
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	googleAuth := auth.NewGoogleAuthenticator(cfg.Auth.GoogleClientID)

	// Preview 파이프라인. The preview service reads through a plain store;
	// the store behind the sync channel invalidates the preview on every
	// committed mutation.
	raster := render.NewRaster()
	readStore := store.NewDB(db, nil)
	previewService := service.NewPreviewService(readStore, redisClient, raster, cfg.Preview.TTL)
	boardStore := store.NewDB(db, previewService)

	// Generative fill 파이프라인
	gemini := ai.NewGeminiClient(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, cfg.AI.SystemPrompt)
	vectorizer := ai.NewVectorizerClient(cfg.AI.VectorizerURL)
	genfillService := service.NewGenFillService(boardStore, raster, gemini, vectorizer)

	hub := handler.NewBoardHub()

	return &Server{
		app:            app,
		cfg:            cfg,
		db:             db,
		redis:          redisClient,
		jwtManager:     jwtManager,
		authHandler:    handler.NewAuthHandler(db, jwtManager, googleAuth, cfg.Auth.SecureCookie, cfg.Auth.AccessTokenExpiry),
		boardHandler:   handler.NewBoardHandler(db, previewService, genfillService),
		shareHandler:   handler.NewShareHandler(db),
		healthHandler:  handler.NewHealthHandler(db, redisClient),
		boardWSHandler: handler.NewBoardWSHandler(db, jwtManager, boardStore, hub, previewService),
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,
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

	// Auth 라우트 그룹
	authGroup := s.app.Group("/auth")
	authGroup.Post("/google", authLimiter, s.authHandler.GoogleLogin)
	authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
	authGroup.Post("/logout", auth.AuthMiddleware(s.jwtManager), s.authHandler.Logout)
	authGroup.Get("/me", auth.AuthMiddleware(s.jwtManager), s.authHandler.Me)

	// Board 라우트 그룹 (인증 + 유료 계정 필요)
	boardGroup := s.app.Group("/api/boards",
		auth.AuthMiddleware(s.jwtManager),
		auth.RequirePaid(s.db),
	)
	boardGroup.Post("", s.boardHandler.Create)
	boardGroup.Get("", s.boardHandler.List)
	boardGroup.Get("/:boardId", s.boardHandler.Get)
	boardGroup.Patch("/:boardId", s.boardHandler.Update)
	boardGroup.Delete("/:boardId", s.boardHandler.Delete)
	boardGroup.Get("/:boardId/picture", s.boardHandler.Picture)
	boardGroup.Post("/:boardId/generative-fill", s.boardHandler.GenerativeFill)

	// Share 라우트 (보드 하위)
	boardGroup.Get("/:boardId/shares", s.shareHandler.List)
	boardGroup.Post("/:boardId/shares", s.shareHandler.Add)
	boardGroup.Patch("/:boardId/shares", s.shareHandler.Update)
	boardGroup.Delete("/:boardId/shares/:userId", s.shareHandler.Remove)

	// WebSocket 보드 동기화 엔드포인트
	s.app.Get("/ws/boards/:boardId",
		s.boardWSHandler.Admit,
		websocket.New(s.boardWSHandler.HandleWebSocket, websocket.Config{
			ReadBufferSize:   s.cfg.WebSocket.ReadBufferSize,
			WriteBufferSize:  s.cfg.WebSocket.WriteBufferSize,
			HandshakeTimeout: s.cfg.WebSocket.HandshakeTimeout,
		}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Collaborative Board API starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/boards/:boardId", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
