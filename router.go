package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func setupRouter(service *Service) *gin.Engine {
	// Initialize router
	r := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	// Setup routes
	r.GET("/bse", service.GetAnnouncements)
	r.GET("/bse/detail", service.GetDetail)
	r.GET("/healthz", service.Health)
	r.NoRoute(service.EchoPath)

	return r
}
