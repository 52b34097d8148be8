package http

import (
	"log/slog"

	"github.com/gdugdh24/guildmatch/internal/delivery/http/handler"
	"github.com/gdugdh24/guildmatch/internal/delivery/http/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authHandler    *handler.AuthHandler
	profileHandler *handler.ProfileHandler
	feedHandler    *handler.FeedHandler
	swipeHandler   *handler.SwipeHandler
	authMiddleware *middleware.AuthMiddleware
	logger         *slog.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	feedHandler *handler.FeedHandler,
	swipeHandler *handler.SwipeHandler,
	authMiddleware *middleware.AuthMiddleware,
	logger *slog.Logger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		profileHandler: profileHandler,
		feedHandler:    feedHandler,
		swipeHandler:   swipeHandler,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(r.logger))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(r.authMiddleware.RequireAuth())
	{
		v1.GET("/auth/me", r.authHandler.Me)

		guild := v1.Group("/guilds/:guild_id")
		{
			// Profile routes
			profile := guild.Group("/profile")
			{
				profile.GET("", r.profileHandler.GetMyProfile)
				profile.POST("", r.profileHandler.CreateMyProfile)
				profile.PUT("", r.profileHandler.PutMyProfile)
				profile.PATCH("", r.profileHandler.UpdateMyProfile)
				profile.DELETE("", r.profileHandler.DeleteMyProfile)
			}
			guild.GET("/profiles/:user_id", r.profileHandler.GetProfileByUserID)

			// Matching routes
			guild.GET("/candidates/next", r.feedHandler.GetNextCandidate)
			guild.POST("/swipes", r.swipeHandler.CreateSwipe)
			guild.POST("/unmatch", r.swipeHandler.Unmatch)
			guild.GET("/pairs/:user_id", r.swipeHandler.GetPairState)
		}
	}

	return router
}
