package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db       *gorm.DB
	sessions Pinger
	logger   *zap.Logger
}

func NewHealthController(db *gorm.DB, sessions Pinger, logger *zap.Logger) *HealthController {
	return &HealthController{db: db, sessions: sessions, logger: logger}
}

func (hc *HealthController) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Salonica API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// Health reports whether the database and session store answer.
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "sessions": "ok"}
	healthy := true

	sqlDB, err := hc.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		hc.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = "unreachable"
		healthy = false
	}
	if err := hc.sessions.Ping(ctx); err != nil {
		hc.logger.Error("session store health check failed", zap.Error(err))
		checks["sessions"] = "unreachable"
		healthy = false
	}

	if !healthy {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "unhealthy", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "checks": checks})
}
