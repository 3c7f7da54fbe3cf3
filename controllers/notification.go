package controllers

import (
	"net/http"
	"strconv"

	"salonica-backend/middleware"
	"salonica-backend/models"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type NotificationController struct {
	notifications *services.NotificationService
	logger        *zap.Logger
}

func NewNotificationController(notifications *services.NotificationService, logger *zap.Logger) *NotificationController {
	return &NotificationController{notifications: notifications, logger: logger}
}

// List returns the caller's notifications, newest first.
func (nc *NotificationController) List(c *gin.Context) {
	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxNotificationLimit)
	}

	items, err := nc.notifications.ListForUser(c.Request.Context(), middleware.MustIdentity(c).UserID, limit)
	if err != nil {
		respondError(c, nc.logger, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "count": len(items)})
}
