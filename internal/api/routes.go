package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hlspress/hlspress/internal/config"
	"github.com/hlspress/hlspress/internal/logging"
	"github.com/hlspress/hlspress/internal/middleware"
	"github.com/hlspress/hlspress/internal/realtime"
)

// SetupRouter wires all routes and middleware
func SetupRouter(api *API, hub *realtime.Hub, cfg *config.Config, log *logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.MaxMultipartMemory = cfg.Server.MaxUploadSize

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	limited := middleware.RateLimit(limiter)

	v := router.Group("/api")
	{
		v.POST("/videos", limited, api.uploadVideo)
		v.POST("/transcode", limited, api.startTranscode)
		v.GET("/videos", api.listVideos)
	}

	router.GET("/ws", gin.WrapH(hub))
	router.GET("/healthz", api.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Finished renditions, playlists, thumbnails and storyboards are
	// served straight off disk.
	router.Static(cfg.Storage.PublicURL, cfg.Storage.OutputDir)

	return router
}
