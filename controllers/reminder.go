// controllers/reminder.go
package controllers

import (
	"net/http"

	"salonica-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReminderController struct {
	reminders *services.ReminderService
	logger    *zap.Logger
}

func NewReminderController(reminders *services.ReminderService, logger *zap.Logger) *ReminderController {
	return &ReminderController{reminders: reminders, logger: logger}
}

// RunReminders sends tomorrow's appointment reminders without waiting for
// the scheduler.
func (rc *ReminderController) RunReminders(c *gin.Context) {
	sent, err := rc.reminders.SendDailyReminders(c.Request.Context())
	if err != nil {
		respondError(c, rc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Reminders processed",
		"sent":    sent,
	})
}
