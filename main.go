package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salonica-backend/config"
	"salonica-backend/migrations"
	"salonica-backend/routes"
	"salonica-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.Environment)
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	migrator, err := config.NewMigrator(db, migrations.FS, logger)
	if err != nil {
		logger.Fatal("failed to init migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	var sms services.Messenger
	if cfg.SMSEnabled() {
		sms = services.NewTwilioMessenger(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, logger)
	} else {
		logger.Info("twilio not configured, SMS delivery disabled")
	}

	sessions := services.NewSessionStore(rdb, cfg.RefreshTokenExpiry)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenExpiry)
	authService := services.NewAuthService(db, sessions, tokens, sms, services.AuthConfig{
		RecoveryTokenExpiry: cfg.RecoveryTokenExpiry,
		PasswordResetURL:    cfg.PasswordResetURL,
		LogResetLinks:       !cfg.IsProduction(),
	}, logger)
	storage := services.NewLocalStorage(cfg.StorageDir, cfg.PublicBaseURL, cfg.JWTSecret, cfg.SignedURLExpiry)
	notifications := services.NewNotificationService(db, sms, logger)
	appointments := services.NewAppointmentService(db, logger)
	reminders := services.NewReminderService(appointments, notifications, logger)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}

	r := routes.SetupRouter(routes.Dependencies{
		DB:            db,
		Logger:        logger,
		CORSOrigins:   cfg.CORSOrigins,
		Verifier:      services.NewTokenVerifier(tokens, authService),
		Sessions:      sessions,
		Auth:          authService,
		Salons:        services.NewSalonService(db, storage, notifications, logger),
		Catalog:       services.NewCatalogService(db, logger),
		Appointments:  appointments,
		Schedule:      services.NewScheduleService(db, logger),
		Notifications: notifications,
		Reminders:     reminders,
		Dashboard:     services.NewDashboardService(db, logger),
		Storage:       storage,
	})
	printRoutes(r, logger)

	if err := reminders.StartScheduler(cfg.ReminderCron); err != nil {
		logger.Fatal("failed to start reminder scheduler", zap.Error(err))
	}
	defer reminders.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func printRoutes(r *gin.Engine, logger *zap.Logger) {
	for _, route := range r.Routes() {
		logger.Debug("route", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
