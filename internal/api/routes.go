package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter creates the engine with CORS for the given origins and all API routes.
func NewRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	SetupRoutes(router, handler)
	return router
}

// corsConfig allows every origin when none are listed or one of them is "*".
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/healthcheck", handler.Health)

	api := router.Group("/api")
	{
		api.GET("/runs", handler.ListRuns)
		api.POST("/runs", handler.TriggerRun)
		api.GET("/runs/:id", handler.GetRun)
		api.GET("/listings", handler.GetListings)
		api.GET("/stats", handler.GetListingStats)
		api.GET("/areas/:postal_code", handler.GetAreaStats)
		api.GET("/analysis/bedrooms", handler.GetBedroomDistribution)
		api.GET("/analysis/postal-codes", handler.GetPostalCodes)
		api.GET("/maps/postal-codes", handler.GetPostalCodeMap)
		api.GET("/maps/hulls", handler.GetPostalHulls)
	}
}
