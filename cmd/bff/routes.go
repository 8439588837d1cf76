package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/snippet-bff/internal/auth"
	"github.com/yourusername/snippet-bff/internal/config"
	"github.com/yourusername/snippet-bff/internal/envelope"
	"github.com/yourusername/snippet-bff/internal/metrics"
	"github.com/yourusername/snippet-bff/internal/middleware"
	"github.com/yourusername/snippet-bff/internal/resource"
	"github.com/yourusername/snippet-bff/internal/session"
	"github.com/yourusername/snippet-bff/internal/sessionstore"
	"github.com/yourusername/snippet-bff/internal/upstream"
)

// newRouter はミドルウェアとルーティングを設定した gin.Engine を返します。
func newRouter(cfg *config.Config, store sessions.Store, client *upstream.Client, m *metrics.Metrics, logger *zap.SugaredLogger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	)

	// CORSミドルウェアの設定
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			middleware.HeaderRequestID,
		}
		corsConfig.ExposeHeaders = []string{middleware.HeaderRequestID}
		router.Use(cors.New(corsConfig))
	}

	router.Use(sessions.Sessions(sessionstore.SessionCookieName, store))

	setupRoutes(router, cfg, client, m, logger)
	return router
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "snippet-bff",
		"version": "0.1.0",
	})
}

// setupRoutes は認証・リソース転送・運用系のエンドポイントを登録します。
func setupRoutes(router *gin.Engine, cfg *config.Config, client *upstream.Client, m *metrics.Metrics, logger *zap.SugaredLogger) {
	router.GET("/health", handleHealth)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	bridge := auth.NewBridge(client, session.NewTokenStore(), logger, m)

	api := router.Group("/api")
	{
		api.POST("/login", auth.LoginHandler(bridge))
		api.DELETE("/login", auth.LogoutHandler(bridge))
		api.GET("/login", auth.CurrentUserHandler(bridge))
		api.POST("/register", auth.RegisterHandler(bridge))
		api.GET("/session", auth.SessionHandler(bridge, cfg.APIURL))
	}

	router.GET("/code/:slug/raw", resource.Handler(resource.NewProxy(client)))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope.Fail("not found"))
	})
}
