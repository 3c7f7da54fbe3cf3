package controllers

import (
	"net/http"
	"time"

	"salonica-backend/middleware"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityItem struct {
	BarberID  *string `json:"barber_id"`
	DayOfWeek *int    `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime string  `json:"start_time" binding:"required"`
	EndTime   string  `json:"end_time" binding:"required"`
	IsActive  *bool   `json:"is_active"`
}

type AvailabilityInput struct {
	Availability []AvailabilityItem `json:"availability" binding:"required,min=1,dive"`
}

// AvailabilityPatchItem only touches the fields present in the body.
type AvailabilityPatchItem struct {
	ID        string  `json:"id" binding:"required,uuid"`
	DayOfWeek *int    `json:"day_of_week" binding:"omitempty,min=0,max=6"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	IsActive  *bool   `json:"is_active"`
}

type AvailabilityPatchInput struct {
	Availability []AvailabilityPatchItem `json:"availability" binding:"required,min=1,dive"`
}

type UnavailabilityInput struct {
	BarberID      *string   `json:"barber_id"`
	StartDatetime time.Time `json:"start_datetime" binding:"required"`
	EndDatetime   time.Time `json:"end_datetime" binding:"required"`
	Reason        string    `json:"reason" binding:"max=255"`
}

type ScheduleController struct {
	schedule *services.ScheduleService
	logger   *zap.Logger
}

func NewScheduleController(schedule *services.ScheduleService, logger *zap.Logger) *ScheduleController {
	return &ScheduleController{schedule: schedule, logger: logger}
}

// MyAvailability returns the weekly slots of the calling barber.
func (sc *ScheduleController) MyAvailability(c *gin.Context) {
	barber, err := sc.schedule.BarberForUser(c.Request.Context(), middleware.MustIdentity(c).UserID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	sc.respondAvailability(c, barber.ID)
}

func (sc *ScheduleController) GetAvailability(c *gin.Context) {
	barberID, ok := uuidParam(c, "barber_id")
	if !ok {
		return
	}
	sc.respondAvailability(c, barberID)
}

func (sc *ScheduleController) respondAvailability(c *gin.Context, barberID uuid.UUID) {
	slots, err := sc.schedule.GetAvailability(c.Request.Context(), barberID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barber_id": barberID, "availability": slots})
}

func (sc *ScheduleController) CreateAvailability(c *gin.Context) {
	var input AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}

	slots := make([]services.AvailabilitySlot, 0, len(input.Availability))
	for _, item := range input.Availability {
		barberID, err := parseOptionalUUID(item.BarberID, "barber_id")
		if err != nil {
			respondError(c, sc.logger, err)
			return
		}
		start, err := utils.ParseClock(item.StartTime)
		if err != nil {
			respondError(c, sc.logger, utils.NewValidationError("Validation failed", err.Error()))
			return
		}
		end, err := utils.ParseClock(item.EndTime)
		if err != nil {
			respondError(c, sc.logger, utils.NewValidationError("Validation failed", err.Error()))
			return
		}
		slots = append(slots, services.AvailabilitySlot{
			BarberID:  barberID,
			DayOfWeek: *item.DayOfWeek,
			StartTime: start,
			EndTime:   end,
			IsActive:  item.IsActive,
		})
	}

	created, err := sc.schedule.CreateAvailability(c.Request.Context(), middleware.MustIdentity(c), slots)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Availability saved successfully.",
		"availability": created,
	})
}

func (sc *ScheduleController) UpdateAvailability(c *gin.Context) {
	var input AvailabilityPatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}

	patches := make([]services.AvailabilityPatch, 0, len(input.Availability))
	for _, item := range input.Availability {
		patch := services.AvailabilityPatch{
			ID:        uuid.MustParse(item.ID),
			DayOfWeek: item.DayOfWeek,
			IsActive:  item.IsActive,
		}
		if item.StartTime != nil {
			t, err := utils.ParseClock(*item.StartTime)
			if err != nil {
				respondError(c, sc.logger, utils.NewValidationError("Validation failed", err.Error()))
				return
			}
			patch.StartTime = &t
		}
		if item.EndTime != nil {
			t, err := utils.ParseClock(*item.EndTime)
			if err != nil {
				respondError(c, sc.logger, utils.NewValidationError("Validation failed", err.Error()))
				return
			}
			patch.EndTime = &t
		}
		patches = append(patches, patch)
	}

	updated, err := sc.schedule.UpdateAvailability(c.Request.Context(), middleware.MustIdentity(c), patches)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Availability updated successfully.",
		"availability": updated,
	})
}

func (sc *ScheduleController) ListUnavailability(c *gin.Context) {
	barberID, ok := uuidParam(c, "barber_id")
	if !ok {
		return
	}
	periods, err := sc.schedule.ListUnavailability(c.Request.Context(), barberID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barber_id": barberID, "unavailability": periods})
}

func (sc *ScheduleController) CreateUnavailability(c *gin.Context) {
	var input UnavailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}
	barberID, err := parseOptionalUUID(input.BarberID, "barber_id")
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	period, err := sc.schedule.CreateUnavailability(c.Request.Context(), middleware.MustIdentity(c), services.UnavailabilityParams{
		BarberID:      barberID,
		StartDatetime: input.StartDatetime,
		EndDatetime:   input.EndDatetime,
		Reason:        input.Reason,
	})
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Unavailability saved successfully.", "unavailability": period})
}

func (sc *ScheduleController) DeleteUnavailability(c *gin.Context) {
	id, ok := uuidParam(c, "unavailability_id")
	if !ok {
		return
	}
	if err := sc.schedule.DeleteUnavailability(c.Request.Context(), middleware.MustIdentity(c), id); err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unavailability deleted successfully."})
}
