package api

import (
	"net/http"

	"runup-backend/internal/auth/delivery"
	authUsecase "runup-backend/internal/auth/usecase"
	notificationDelivery "runup-backend/internal/notification/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, notificationHandler *notificationDelivery.NotificationHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
		})

		// Notification settings, history and FCM token routes (protected)
		notificationHandler.RegisterRoutes(api, delivery.AuthMiddleware(authUsecase))
	}
}
