// Package api exposes the WebSocket chat protocol and the REST credit surface.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/config"
	"github.com/dyncarl8-oss/signalix-ai/internal/auth"
	"github.com/dyncarl8-oss/signalix-ai/internal/credits"
	"github.com/dyncarl8-oss/signalix-ai/internal/predictor"
)

// Server is the HTTP/WebSocket server.
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	cfg          config.ServerConfig
	ledger       credits.Ledger
	orchestrator *predictor.Orchestrator
	verifier     *auth.Verifier
	adminHash    string
	logger       zerolog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg config.ServerConfig,
	authCfg config.AuthConfig,
	ledger credits.Ledger,
	orchestrator *predictor.Orchestrator,
	verifier *auth.Verifier,
	logger zerolog.Logger,
) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.AllowedOrigins}
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, auth.UserTokenHeader, adminSecretHeader)
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:       router,
		cfg:          cfg,
		ledger:       ledger,
		orchestrator: orchestrator,
		verifier:     verifier,
		adminHash:    authCfg.AdminSecretHash,
		logger:       logger,
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.GET("/credits", s.handleGetCredits)
		api.POST("/credits/purchase-success", s.handlePurchaseSuccess)
		api.POST("/credits/revoke", s.handleRevokeUnlimited)
		api.POST("/profile", s.handleUpsertProfile)
	}
}

// Start begins serving and blocks until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("API server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
