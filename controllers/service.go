// controllers/service.go
package controllers

import (
	"net/http"

	"salonica-backend/middleware"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description string  `json:"description" binding:"max=255"`
	Price       float64 `json:"price" binding:"required,min=0"`
	Duration    int     `json:"duration" binding:"min=0"` // in minutes
	Category    string  `json:"category" binding:"max=50"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name        *string  `json:"name" binding:"omitempty,max=100"`
	Description *string  `json:"description" binding:"omitempty,max=255"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Duration    *int     `json:"duration" binding:"omitempty,min=0"`
	Category    *string  `json:"category" binding:"omitempty,max=50"`
	IsActive    *bool    `json:"is_active"`
}

// ServiceController exposes a salon's service menu.
type ServiceController struct {
	catalog *services.CatalogService
	logger  *zap.Logger
}

func NewServiceController(catalog *services.CatalogService, logger *zap.Logger) *ServiceController {
	return &ServiceController{catalog: catalog, logger: logger}
}

// GetServices lists a salon's services. Inactive entries are hidden unless
// ?all=true.
func (sc *ServiceController) GetServices(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}

	items, err := sc.catalog.List(c.Request.Context(), salonID, c.Query("all") != "true")
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": items, "count": len(items)})
}

func (sc *ServiceController) CreateService(c *gin.Context) {
	salonID, ok := uuidParam(c, "salon_id")
	if !ok {
		return
	}

	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}

	item, err := sc.catalog.Create(c.Request.Context(), middleware.MustIdentity(c), salonID, services.ServiceParams{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
	})
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (sc *ServiceController) UpdateService(c *gin.Context) {
	serviceID, ok := uuidParam(c, "service_id")
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, sc.logger, utils.BindingError(err))
		return
	}

	item, err := sc.catalog.Update(c.Request.Context(), middleware.MustIdentity(c), serviceID, services.ServicePatch{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
		IsActive:    input.IsActive,
	})
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (sc *ServiceController) DeleteService(c *gin.Context) {
	serviceID, ok := uuidParam(c, "service_id")
	if !ok {
		return
	}

	if err := sc.catalog.Delete(c.Request.Context(), middleware.MustIdentity(c), serviceID); err != nil {
		respondError(c, sc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}
