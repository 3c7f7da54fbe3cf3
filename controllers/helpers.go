package controllers

import (
	"net/http"

	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// uuidParam parses a route param, answering 400 when it is not a uuid.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// respondError writes err as the error envelope and logs server side
// failures with their cause.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if kind := utils.KindOf(err); kind == 0 || kind == utils.KindUpstream {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	utils.RespondWithAppError(c, err)
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, utils.NewValidationError("Validation failed", field+" must be a valid uuid")
	}
	return &id, nil
}
