package controllers

import (
	"io"
	"net/http"
	"path"
	"strings"

	"salonica-backend/middleware"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RefreshURLInput struct {
	FilePath string `json:"filepath" binding:"required"`
}

// UploadController handles salon attachments and serves signed downloads.
type UploadController struct {
	salons  *services.SalonService
	files   services.FileStore
	storage *services.LocalStorage
	logger  *zap.Logger
}

func NewUploadController(salons *services.SalonService, storage *services.LocalStorage, logger *zap.Logger) *UploadController {
	return &UploadController{salons: salons, files: storage, storage: storage, logger: logger}
}

// Upload stores a license or logo for a salon the caller owns.
func (uc *UploadController) Upload(c *gin.Context) {
	fileType := c.Param("file_type")
	if !services.IsValidFileType(fileType) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid file type")
		return
	}

	header, err := c.FormFile("file")
	salonID, parseErr := uuid.Parse(c.PostForm("salon_id"))
	if err != nil || parseErr != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing file or salon_id")
		return
	}

	if !uc.authorizeSalon(c, salonID) {
		return
	}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()
	upload, err := openUpload(header, &closers)
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	signed, err := services.UploadSalonFile(c.Request.Context(), uc.files, salonID, fileType, *upload)
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "File uploaded successfully",
		"file_type": fileType,
		"url":       signed,
	})
}

// RefreshURL issues a fresh signed link for a stored attachment.
func (uc *UploadController) RefreshURL(c *gin.Context) {
	var input RefreshURLInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing 'filepath'")
		return
	}

	objectPath := strings.TrimPrefix(input.FilePath, "/")
	salonID, err := uuid.Parse(strings.SplitN(objectPath, "/", 2)[0])
	if err != nil {
		respondError(c, uc.logger, utils.NewValidationError("Invalid file path", "expected <salon_id>/<license|logo>/<filename>"))
		return
	}
	if !uc.authorizeSalon(c, salonID) {
		return
	}

	signed, err := services.RefreshSignedURL(uc.files, objectPath)
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Signed URL regenerated successfully",
		"signed_url": signed,
	})
}

// Download serves a stored object to anyone holding a valid signed link.
func (uc *UploadController) Download(c *gin.Context) {
	bucket := c.Param("bucket")
	objectPath := strings.TrimPrefix(c.Param("filepath"), "/")

	f, err := uc.storage.Open(bucket, objectPath, c.Query("token"))
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename=\""+path.Base(objectPath)+"\"")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func (uc *UploadController) authorizeSalon(c *gin.Context, salonID uuid.UUID) bool {
	identity := middleware.MustIdentity(c)
	salon, err := uc.salons.Get(c.Request.Context(), salonID)
	if err != nil {
		respondError(c, uc.logger, err)
		return false
	}
	if !identity.IsAdmin() && salon.OwnerID != identity.UserID {
		utils.RespondWithError(c, http.StatusForbidden, "You do not own this salon")
		return false
	}
	return true
}
