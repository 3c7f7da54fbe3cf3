package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"salonica-backend/middleware"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalonApplyInput binds from JSON or multipart form fields.
type SalonApplyInput struct {
	Name        string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Address     string `json:"address" form:"address" binding:"required"`
	City        string `json:"city" form:"city" binding:"max=100"`
	State       string `json:"state" form:"state" binding:"required,len=2"`
	ZipCode     string `json:"zip_code" form:"zip_code" binding:"required,len=5,numeric"`
	Phone       string `json:"phone" form:"phone"`
	Email       string `json:"email" form:"email" binding:"omitempty,email"`
	Description string `json:"description" form:"description" binding:"max=255"`
	LicenseURL  string `json:"license_url" form:"license_url"`
	LogoURL     string `json:"logo_url" form:"logo_url"`
}

type RejectInput struct {
	Reason string `json:"reason"`
}

type AddBarberInput struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type SalonController struct {
	salons *services.SalonService
	logger *zap.Logger
}

func NewSalonController(salons *services.SalonService, logger *zap.Logger) *SalonController {
	return &SalonController{salons: salons, logger: logger}
}

func (sc *SalonController) Apply(c *gin.Context) {
	identity := middleware.MustIdentity(c)

	var input SalonApplyInput
	if err := c.ShouldBind(&input); err != nil {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}

	params := services.ApplyParams{
		Name:        input.Name,
		Address:     input.Address,
		City:        input.City,
		State:       input.State,
		ZipCode:     input.ZipCode,
		Phone:       input.Phone,
		Email:       input.Email,
		Description: input.Description,
		LicenseURL:  input.LicenseURL,
		LogoURL:     input.LogoURL,
	}

	if isMultipart(c) {
		var closers []io.Closer
		defer func() {
			for _, cl := range closers {
				cl.Close()
			}
		}()
		var err error
		if params.License, err = formFile(c, "license", &closers); err != nil {
			respondError(c, sc.logger, err)
			return
		}
		if params.Logo, err = formFile(c, "logo", &closers); err != nil {
			respondError(c, sc.logger, err)
			return
		}
	}

	salon, err := sc.salons.Apply(c.Request.Context(), identity, params)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":             "Salon registered successfully",
		"salon_name":          salon.Name,
		"salon_id":            salon.ID,
		"verification_status": salon.Status,
	})
}

func (sc *SalonController) Appeal(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}
	identity := middleware.MustIdentity(c)

	params := services.AppealParams{}
	if isMultipart(c) {
		params.Updates = decodeUpdates([]byte(c.PostForm("updates")))

		var closers []io.Closer
		defer func() {
			for _, cl := range closers {
				cl.Close()
			}
		}()
		var err error
		if params.License, err = formFile(c, "license", &closers); err != nil {
			respondError(c, sc.logger, err)
			return
		}
		if params.Logo, err = formFile(c, "logo", &closers); err != nil {
			respondError(c, sc.logger, err)
			return
		}
	} else {
		var body struct {
			Updates json.RawMessage `json:"updates"`
		}
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				utils.RespondWithError(c, http.StatusBadRequest, "Invalid JSON body")
				return
			}
		}
		params.Updates = decodeUpdates(body.Updates)
	}

	salon, err := sc.salons.Appeal(c.Request.Context(), salonID, identity.UserID, params)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Appeal submitted successfully",
		"new_status": salon.Status,
		"salon_id":   salon.ID,
		"salon_name": salon.Name,
	})
}

func (sc *SalonController) Approve(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}

	salon, err := sc.salons.Approve(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Salon approved successfully",
		"salon_id":   salon.ID,
		"salon_name": salon.Name,
		"status":     salon.Status,
	})
}

func (sc *SalonController) Reject(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}

	var input RejectInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "No reason provided"
	}

	salon, err := sc.salons.Reject(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Salon rejected",
		"reason":     reason,
		"salon_id":   salon.ID,
		"salon_name": salon.Name,
		"status":     salon.Status,
	})
}

func (sc *SalonController) ListPending(c *gin.Context) {
	salons, err := sc.salons.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"salons": salons, "count": len(salons)})
}

func (sc *SalonController) ListMine(c *gin.Context) {
	salons, err := sc.salons.ListByOwner(c.Request.Context(), middleware.MustIdentity(c).UserID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"salons": salons, "count": len(salons)})
}

func (sc *SalonController) StatusHistory(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}

	timeline, err := sc.salons.StatusHistory(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeline": timeline, "count": len(timeline)})
}

func (sc *SalonController) AddBarber(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}

	var input AddBarberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}

	barber, err := sc.salons.AddBarber(c.Request.Context(), middleware.MustIdentity(c), salonID, uuid.MustParse(input.UserID))
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Barber added successfully", "barber": barber})
}

func (sc *SalonController) ListBarbers(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}

	barbers, err := sc.salons.ListBarbers(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barbers": barbers, "count": len(barbers)})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFile opens an optional multipart file field.
func formFile(c *gin.Context, field string, closers *[]io.Closer) (*services.FileUpload, error) {
	header, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewValidationError("Invalid file upload", field+": "+err.Error())
	}
	return openUpload(header, closers)
}

func openUpload(header *multipart.FileHeader, closers *[]io.Closer) (*services.FileUpload, error) {
	f, err := header.Open()
	if err != nil {
		return nil, utils.NewValidationError("Invalid file upload", err.Error())
	}
	*closers = append(*closers, f)
	return &services.FileUpload{Filename: header.Filename, Body: f}, nil
}

// decodeUpdates accepts the updates object directly or as a JSON encoded
// string. Anything else yields no updates.
func decodeUpdates(raw []byte) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return map[string]any{}
		}
		raw = []byte(s)
	}
	updates := map[string]any{}
	if err := json.Unmarshal(raw, &updates); err != nil {
		return map[string]any{}
	}
	return updates
}
