package api

import (
	"time"

	authUsecase "runup-backend/internal/auth/usecase"
	notificationDelivery "runup-backend/internal/notification/delivery"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	authUsecase         authUsecase.AuthUsecase
	notificationHandler *notificationDelivery.NotificationHandler
	log                 *zap.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, notificationHandler *notificationDelivery.NotificationHandler, log *zap.Logger) *Handler {
	return &Handler{
		authUsecase:         authUc,
		notificationHandler: notificationHandler,
		log:                 log,
	}
}

// Engine builds the gin engine with middleware and all routes
func (h *Handler) Engine() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(h.log), gin.Recovery(), corsMiddleware())

	SetupRoutes(r, h.authUsecase, h.notificationHandler)
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestLogger writes one structured line per request
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := c.GetString("userID"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
