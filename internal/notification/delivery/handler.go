package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	authDelivery "runup-backend/internal/auth/delivery"
	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/dto"
	"runup-backend/internal/notification/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsService is implemented by *usecase.SettingsUsecase
type SettingsService interface {
	GetSettings(ctx context.Context, userID string) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, userID string, req *dto.UpdateSettingsRequest) (*domain.Settings, error)
	History(ctx context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, dto.Pagination, error)
	SaveToken(ctx context.Context, userID, fcmToken string) error
	DeleteToken(ctx context.Context, userID string) error
}

// SchedulerStatus is implemented by *scheduler.Scheduler
type SchedulerStatus interface {
	Status() scheduler.Status
}

// NotificationHandler handles notification settings, history and token requests
type NotificationHandler struct {
	service   SettingsService
	scheduler SchedulerStatus
	log       *zap.Logger
}

func NewNotificationHandler(service SettingsService, sched SchedulerStatus, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		scheduler: sched,
		log:       log,
	}
}

// RegisterRoutes mounts the notification and token routes on api behind auth
func (h *NotificationHandler) RegisterRoutes(api *gin.RouterGroup, auth gin.HandlerFunc) {
	owner := authDelivery.RequireOwner()

	notifications := api.Group("/notifications")
	notifications.Use(auth)
	{
		notifications.GET("/settings/:userId", owner, h.GetSettings)
		notifications.PUT("/settings/:userId", owner, h.UpdateSettings)
		notifications.GET("/history/:userId", owner, h.GetHistory)
		notifications.GET("/scheduler/status", h.GetSchedulerStatus)
	}

	users := api.Group("/users")
	users.Use(auth)
	{
		users.POST("/fcm-token", h.RegisterToken)
		users.PUT("/:userId/fcm-token", owner, h.UpdateToken)
		users.DELETE("/fcm-token/:userId", owner, h.DeleteToken)
	}
}

// GetSettings returns stored settings or freshly created defaults
// GET /api/notifications/settings/:userId
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err, "Failed to fetch notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
}

// UpdateSettings validates and merges the user's settings
// PUT /api/notifications/settings/:userId
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := decodeStrict(c.Request.Body, &req); err != nil {
		h.fail(c, err, "Failed to update notification settings")
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), c.Param("userId"), &req)
	if err != nil {
		h.fail(c, err, "Failed to update notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification settings updated successfully",
		"data":    settings,
	})
}

// GetHistory returns the user's notification history, newest first
// GET /api/notifications/history/:userId?limit=50&offset=0
func (h *NotificationHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, page, err := h.service.History(c.Request.Context(), c.Param("userId"), limit, offset)
	if err != nil {
		h.fail(c, err, "Failed to fetch notification history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       records,
		"pagination": page,
	})
}

// GetSchedulerStatus reports which scheduled jobs are running
// GET /api/notifications/scheduler/status
func (h *NotificationHandler) GetSchedulerStatus(c *gin.Context) {
	var status scheduler.Status
	if h.scheduler != nil {
		status = h.scheduler.Status()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

// RegisterToken saves the caller's FCM token
// POST /api/users/fcm-token
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req dto.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.FCMToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId and fcmToken are required"})
		return
	}
	if !authDelivery.IsOwner(c, req.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "access denied"})
		return
	}

	if err := h.service.SaveToken(c.Request.Context(), req.UserID, req.FCMToken); err != nil {
		h.fail(c, err, "Failed to save FCM token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "FCM token saved successfully"})
}

// UpdateToken replaces the user's FCM token
// PUT /api/users/:userId/fcm-token
func (h *NotificationHandler) UpdateToken(c *gin.Context) {
	var req dto.UpdateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FCMToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "fcmToken is required"})
		return
	}

	if err := h.service.SaveToken(c.Request.Context(), c.Param("userId"), req.FCMToken); err != nil {
		h.fail(c, err, "Failed to update FCM token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "FCM token updated successfully"})
}

// DeleteToken removes the user's FCM token
// DELETE /api/users/fcm-token/:userId
func (h *NotificationHandler) DeleteToken(c *gin.Context) {
	if err := h.service.DeleteToken(c.Request.Context(), c.Param("userId")); err != nil {
		h.fail(c, err, "Failed to remove FCM token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "FCM token removed successfully"})
}

// fail maps err to a response. Unexpected errors are logged and hidden behind message.
func (h *NotificationHandler) fail(c *gin.Context, err error, message string) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation error",
			"details": vErr.Details,
		})
		return
	}

	h.log.Error(message,
		zap.String("path", c.FullPath()),
		zap.String("user_id", c.GetString(authDelivery.ContextUserID)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": message})
}

// decodeStrict decodes a JSON body, rejecting unknown fields and type mismatches
// as validation errors.
func decodeStrict(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var detail string
	switch {
	case errors.Is(err, io.EOF):
		detail = "request body is required"
	case errors.As(err, &typeErr):
		detail = fmt.Sprintf("%q must be of type %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		detail = "request body must be valid JSON"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		detail = strings.TrimPrefix(err.Error(), "json: unknown field ") + " is not allowed"
	default:
		detail = err.Error()
	}
	return &domain.ValidationError{Details: []string{detail}}
}
