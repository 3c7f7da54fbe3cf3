package routes

import (
	"net/http"
	"time"

	"salonica-backend/config"
	"salonica-backend/controllers"
	"salonica-backend/middleware"
	"salonica-backend/models"
	"salonica-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *zap.Logger
	CORSOrigins   []string
	Verifier      middleware.Verifier
	Sessions      controllers.Pinger
	Auth          *services.AuthService
	Salons        *services.SalonService
	Catalog       *services.CatalogService
	Appointments  *services.AppointmentService
	Schedule      *services.ScheduleService
	Notifications *services.NotificationService
	Reminders     *services.ReminderService
	Dashboard     *services.DashboardService
	Storage       *services.LocalStorage
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()

	corsConfig := cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(deps.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))
	r.Use(config.RequestLogger(deps.Logger))
	r.Use(gin.Recovery())

	v := deps.Verifier
	local := services.VerifyLocal
	authed := middleware.RequireAuth(v, local)
	admin := middleware.RequireRoles(v, local, models.RoleAdmin)
	owner := middleware.RequireRoles(v, local, models.RoleSalonOwner)
	ownerOrAdmin := middleware.RequireRoles(v, local, models.RoleSalonOwner, models.RoleAdmin)
	staff := middleware.RequireRoles(v, local, models.RoleBarber, models.RoleSalonOwner, models.RoleAdmin)
	anyRole := middleware.RequireRoles(v, local, models.Roles...)

	notify := func(spec middleware.NotifySpec) gin.HandlerFunc {
		return middleware.Notify(deps.Notifications, deps.Logger, spec)
	}

	health := controllers.NewHealthController(deps.DB, deps.Sessions, deps.Logger)
	r.GET("/", health.Index)
	r.GET("/health", health.Health)

	api := r.Group("/api")

	authController := controllers.NewAuthController(deps.Auth, deps.Logger)
	profileController := controllers.NewProfileController(deps.Auth, deps.Logger)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authController.SignUp)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.Refresh)
		auth.POST("/password-reset/request", profileController.RequestPasswordReset)
		auth.POST("/password-reset/confirm", profileController.ConfirmPasswordReset)

		auth.POST("/logout", authed, authController.Logout)
		auth.GET("/me", authed, authController.Me)
		auth.GET("/profile", authed, profileController.GetProfile)
		auth.PUT("/profile", authed, profileController.UpdateProfile)
		auth.PUT("/password/change", authed, profileController.ChangePassword)
		auth.PUT("/users/:user_id/role",
			middleware.RequireRoles(v, services.VerifyAuthoritative, models.RoleAdmin),
			profileController.UpdateRole)
	}

	salonController := controllers.NewSalonController(deps.Salons, deps.Logger)
	serviceController := controllers.NewServiceController(deps.Catalog, deps.Logger)
	salons := api.Group("/salons")
	{
		salons.POST("/apply", owner,
			notify(middleware.NotifySpec{
				Recipients:      []services.Recipient{services.Admins()},
				EventType:       models.NotificationTypeSalonVerification,
				Title:           "New Salon Application",
				MessageTemplate: "New salon application by {salon_name} submitted.",
			}),
			salonController.Apply)
		salons.GET("/pending", admin, salonController.ListPending)
		salons.GET("/mine", owner, salonController.ListMine)

		salons.PUT("/:salon_id/appeal", authed,
			notify(middleware.NotifySpec{
				Recipients:      []services.Recipient{services.Admins()},
				EventType:       models.NotificationTypeSalonVerification,
				Title:           "Salon Appeal submitted",
				MessageTemplate: "New salon appeal by {salon_name} submitted.",
			}),
			salonController.Appeal)
		salons.PATCH("/:salon_id/approve", admin,
			notify(middleware.NotifySpec{
				Recipients:      []services.Recipient{services.RelatedOwner()},
				EventType:       models.NotificationTypeSalonVerification,
				Title:           "Salon Approved",
				MessageTemplate: "Your Salon has been approved.",
			}),
			salonController.Approve)
		salons.PATCH("/:salon_id/reject", admin,
			notify(middleware.NotifySpec{
				Recipients:      []services.Recipient{services.RelatedOwner()},
				EventType:       models.NotificationTypeSalonVerification,
				Title:           "Salon Denied",
				MessageTemplate: "Your Salon has been Denied. Reason(s): {reason}",
			}),
			salonController.Reject)
		salons.GET("/:salon_id/status-history", admin, salonController.StatusHistory)

		salons.GET("/:salon_id/barbers", authed, salonController.ListBarbers)
		salons.POST("/:salon_id/barbers", ownerOrAdmin, salonController.AddBarber)

		salons.GET("/:salon_id/services", authed, serviceController.GetServices)
		salons.POST("/:salon_id/services", ownerOrAdmin, serviceController.CreateService)
	}

	catalog := api.Group("/services")
	{
		catalog.PUT("/:service_id", ownerOrAdmin, serviceController.UpdateService)
		catalog.DELETE("/:service_id", ownerOrAdmin, serviceController.DeleteService)
	}

	appointmentController := controllers.NewAppointmentController(deps.Appointments, deps.Logger)
	appointments := api.Group("/appointments", anyRole)
	{
		appointments.GET("/", appointmentController.List)
		appointments.POST("/", appointmentController.Create)
		appointments.PATCH("/", appointmentController.Update)
		appointments.PATCH("/:appointment_id/:status",
			notify(middleware.NotifySpec{
				Recipients:      []services.Recipient{services.RelatedUser()},
				EventType:       models.NotificationTypeAppointmentUpdate,
				Title:           "Appointment Updated",
				MessageTemplate: "Your appointment on {appointment_date} is now {status}.",
				RelatedKey:      "appointment_id",
			}),
			appointmentController.ChangeStatus)
	}

	scheduleController := controllers.NewScheduleController(deps.Schedule, deps.Logger)
	schedule := api.Group("/schedule")
	{
		schedule.GET("/availability", middleware.RequireRoles(v, local, models.RoleBarber), scheduleController.MyAvailability)
		schedule.GET("/availability/:barber_id", authed, scheduleController.GetAvailability)
		schedule.POST("/availability", staff, scheduleController.CreateAvailability)
		schedule.PATCH("/availability", staff, scheduleController.UpdateAvailability)

		schedule.GET("/unavailability/:barber_id", authed, scheduleController.ListUnavailability)
		schedule.POST("/unavailability", staff, scheduleController.CreateUnavailability)
		schedule.DELETE("/unavailability/:unavailability_id", staff, scheduleController.DeleteUnavailability)
	}

	uploadController := controllers.NewUploadController(deps.Salons, deps.Storage, deps.Logger)
	uploads := api.Group("/uploads", ownerOrAdmin)
	{
		uploads.POST("/refresh", uploadController.RefreshURL)
		uploads.POST("/:file_type", uploadController.Upload)
	}
	api.GET("/files/:bucket/*filepath", uploadController.Download)

	notificationController := controllers.NewNotificationController(deps.Notifications, deps.Logger)
	api.GET("/notifications", authed, notificationController.List)

	dashboardController := controllers.NewDashboardController(deps.Dashboard, deps.Logger)
	reminderController := controllers.NewReminderController(deps.Reminders, deps.Logger)
	adminGroup := api.Group("/admin", admin)
	{
		adminGroup.GET("/dashboard", dashboardController.GetDashboardOverview)
		adminGroup.POST("/reminders/run", reminderController.RunReminders)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return r
}
