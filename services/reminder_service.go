// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ReminderService notifies customers the day before their appointment.
type ReminderService struct {
	appointments  *AppointmentService
	notifications *NotificationService
	logger        *zap.Logger
	cron          *cron.Cron
	now           func() time.Time
}

func NewReminderService(appointments *AppointmentService, notifications *NotificationService, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		appointments:  appointments,
		notifications: notifications,
		logger:        logger,
		cron:          cron.New(),
		now:           time.Now,
	}
}

// StartScheduler runs SendDailyReminders on spec, a standard five field
// cron expression.
func (s *ReminderService) StartScheduler(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.SendDailyReminders(context.Background()); err != nil {
			s.logger.Error("daily reminders failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminders %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.String("spec", spec))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}

// SendDailyReminders broadcasts a reminder for every scheduled appointment
// tomorrow that has not been reminded yet. It returns how many appointments
// were reminded.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (int, error) {
	tomorrow := datatypes.Date(utils.BeginningOfDay(s.now().UTC()).AddDate(0, 0, 1))

	due, err := s.appointments.DueForReminder(ctx, tomorrow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range due {
		relatedID := a.ID
		message := fmt.Sprintf("Reminder: you have an appointment on %s at %s.",
			utils.FormatDate(a.AppointmentDate), a.StartTime.String())

		_, err := s.notifications.Broadcast(ctx, Broadcast{
			Recipients: []Recipient{RelatedUser()},
			EventType:  models.NotificationTypeAppointmentReminder,
			Title:      "Appointment Reminder",
			Message:    message,
			RelatedID:  &relatedID,
		})
		if err != nil {
			s.logger.Warn("reminder failed", zap.String("appointment_id", a.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Info("daily reminders processed", zap.Int("due", len(due)), zap.Int("sent", sent))
	return sent, nil
}
