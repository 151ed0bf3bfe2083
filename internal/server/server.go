package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chitchat/config"
	"chitchat/internal/handler"
	"chitchat/internal/middleware"
	"chitchat/internal/services"
	"chitchat/internal/websocket"
	"chitchat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Health        *handler.HealthHandler
	Messages      *handler.MessageHandler
	Posts         *handler.PostHandler
	Users         *handler.UserHandler
	Notifications *handler.NotificationHandler
	Live          *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) SetupRoutes(h *Handlers, authService *services.AuthService) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", h.Health.Ping)
	s.engine.GET("/health", h.Health.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/v1/live", h.Live.Connect)

	v1 := s.engine.Group("/v1", middleware.AuthMiddleware(authService))
	{
		v1.GET("/notifications", h.Notifications.List)

		v1.GET("/chats/:chatId/messages", h.Messages.List)
		v1.POST("/chats/:chatId/messages", h.Messages.Send)

		v1.POST("/posts/:postId/like", h.Posts.ToggleLike)
		v1.GET("/posts/:postId/likes", h.Posts.Likes)
		v1.GET("/posts/:postId/comments", h.Posts.Comments)
		v1.POST("/posts/:postId/comments", h.Posts.AddComment)

		v1.POST("/users/:userId/follow", h.Users.ToggleFollow)
		v1.GET("/users/:userId/followers", h.Users.Followers)
		v1.GET("/users/:userId/followings", h.Users.Followings)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Logger.Error("server failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Infof("Quitting signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Errorf("Error in the graceful shutdown of the server: %s", err)
		return err
	}
	s.logger.Infof("Server stopped gracefully")
	return nil
}
