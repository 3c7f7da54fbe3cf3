package controllers

import (
	"net/http"

	"salonica-backend/middleware"
	"salonica-backend/models"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateAppointmentInput struct {
	SalonID         string  `json:"salon_id" binding:"required,uuid"`
	BarberID        string  `json:"barber_id" binding:"required,uuid"`
	ServiceID       *string `json:"service_id"`
	CustomerID      *string `json:"customer_id"`
	AppointmentDate string  `json:"appointment_date" binding:"required"`
	StartTime       string  `json:"start_time" binding:"required"`
	EndTime         string  `json:"end_time" binding:"required"`
	Notes           string  `json:"notes"`
}

// UpdateAppointmentInput only touches the fields present in the body.
type UpdateAppointmentInput struct {
	ID                 string  `json:"id" binding:"required,uuid"`
	BarberID           *string `json:"barber_id"`
	ServiceID          *string `json:"service_id"`
	AppointmentDate    *string `json:"appointment_date"`
	StartTime          *string `json:"start_time"`
	EndTime            *string `json:"end_time"`
	Status             *string `json:"status"`
	Notes              *string `json:"notes"`
	CancellationReason *string `json:"cancellation_reason"`
}

type AppointmentController struct {
	appointments *services.AppointmentService
	logger       *zap.Logger
}

func NewAppointmentController(appointments *services.AppointmentService, logger *zap.Logger) *AppointmentController {
	return &AppointmentController{appointments: appointments, logger: logger}
}

func (ac *AppointmentController) Create(c *gin.Context) {
	identity := middleware.MustIdentity(c)

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, ac.logger, utils.BindingError(err))
		return
	}

	params, err := createParams(identity, input)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	appointment, err := ac.appointments.Create(c.Request.Context(), params)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Appointment created successfully.",
		"appointment_id": appointment.ID,
		"appointment":    appointment,
	})
}

func (ac *AppointmentController) List(c *gin.Context) {
	appointments, err := ac.appointments.List(c.Request.Context(), middleware.MustIdentity(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

func (ac *AppointmentController) Update(c *gin.Context) {
	var input UpdateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, ac.logger, utils.BindingError(err))
		return
	}

	update, err := appointmentUpdate(input)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	appointment, err := ac.appointments.Update(c.Request.Context(), middleware.MustIdentity(c), uuid.MustParse(input.ID), update)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment updated successfully.",
		"appointment": appointment,
	})
}

func (ac *AppointmentController) ChangeStatus(c *gin.Context) {
	appointmentID, ok := uuidParam(c, "appointment_id")
	if !ok {
		return
	}

	appointment, err := ac.appointments.ChangeStatus(c.Request.Context(), middleware.MustIdentity(c), appointmentID, c.Param("status"))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	middleware.SetNotifyContext(c, "appointment_date", utils.FormatDate(appointment.AppointmentDate))
	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment status updated successfully.",
		"appointment": appointment,
	})
}

func createParams(identity *services.Identity, input CreateAppointmentInput) (services.CreateAppointmentParams, error) {
	var p services.CreateAppointmentParams
	var details []string

	date, err := utils.ParseDate(input.AppointmentDate)
	if err != nil {
		details = append(details, err.Error())
	}
	start, err := utils.ParseClock(input.StartTime)
	if err != nil {
		details = append(details, err.Error())
	}
	end, err := utils.ParseClock(input.EndTime)
	if err != nil {
		details = append(details, err.Error())
	}
	serviceID, err := parseOptionalUUID(input.ServiceID, "service_id")
	if err != nil {
		return p, err
	}
	if len(details) > 0 {
		return p, utils.NewValidationError("Validation failed", details...)
	}

	customerID := identity.UserID
	if identity.Role != models.RoleCustomer {
		requested, err := parseOptionalUUID(input.CustomerID, "customer_id")
		if err != nil {
			return p, err
		}
		if requested != nil {
			customerID = *requested
		}
	}

	return services.CreateAppointmentParams{
		CustomerID:      customerID,
		BarberID:        uuid.MustParse(input.BarberID),
		SalonID:         uuid.MustParse(input.SalonID),
		ServiceID:       serviceID,
		AppointmentDate: date,
		StartTime:       start,
		EndTime:         end,
		Notes:           input.Notes,
	}, nil
}

func appointmentUpdate(input UpdateAppointmentInput) (services.AppointmentUpdate, error) {
	u := services.AppointmentUpdate{
		Status:             input.Status,
		Notes:              input.Notes,
		CancellationReason: input.CancellationReason,
	}
	var err error
	if u.BarberID, err = parseOptionalUUID(input.BarberID, "barber_id"); err != nil {
		return u, err
	}
	if u.ServiceID, err = parseOptionalUUID(input.ServiceID, "service_id"); err != nil {
		return u, err
	}
	if input.AppointmentDate != nil {
		d, err := utils.ParseDate(*input.AppointmentDate)
		if err != nil {
			return u, utils.NewValidationError("Validation failed", err.Error())
		}
		u.AppointmentDate = &d
	}
	if input.StartTime != nil {
		t, err := utils.ParseClock(*input.StartTime)
		if err != nil {
			return u, utils.NewValidationError("Validation failed", err.Error())
		}
		u.StartTime = &t
	}
	if input.EndTime != nil {
		t, err := utils.ParseClock(*input.EndTime)
		if err != nil {
			return u, utils.NewValidationError("Validation failed", err.Error())
		}
		u.EndTime = &t
	}
	return u, nil
}
