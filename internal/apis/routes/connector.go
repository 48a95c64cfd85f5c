package routes

import (
	"log"

	"mongobridge/internal/apis/middlewares"
	"mongobridge/internal/di"

	"github.com/gin-gonic/gin"
)

func SetupConnectorRoutes(router *gin.Engine) {
	connectorHandler, err := di.GetConnectorHandler()
	if err != nil {
		log.Fatalf("Failed to get connector handler: %v", err)
	}

	// Connector routes
	protected := router.Group("/api/connector")
	protected.Use(middlewares.AuthMiddleware())
	{
		protected.POST("/execute", connectorHandler.Execute)
		protected.POST("/ping", connectorHandler.Ping)
		protected.GET("/logs", connectorHandler.Logs)
	}
}
