package services

import (
	"context"
	"errors"
	"testing"

	"salonica-backend/models"
	"salonica-backend/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newNotificationService(t *testing.T, db *gorm.DB, sms Messenger) *NotificationService {
	t.Helper()
	return NewNotificationService(db, sms, zaptest.NewLogger(t))
}

func TestNotificationService_AdminsFanOut(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newNotificationService(t, db, nil)

	admins := []*models.User{
		testutil.CreateUser(t, db, models.RoleAdmin),
		testutil.CreateUser(t, db, models.RoleAdmin),
		testutil.CreateUser(t, db, models.RoleAdmin),
	}
	testutil.CreateUser(t, db, models.RoleCustomer)
	relatedID := uuid.New()

	n, err := svc.Broadcast(context.Background(), Broadcast{
		Recipients: []Recipient{Admins()},
		EventType:  models.NotificationTypeSalonVerification,
		Title:      "New Salon Application",
		Message:    "New salon application by Hype Hair submitted.",
		RelatedID:  &relatedID,
	})
	require.NoError(t, err)
	assert.Equal(t, len(admins), n)

	var records []models.Notification
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, len(admins))

	recipients := map[uuid.UUID]bool{}
	for _, r := range records {
		recipients[r.UserID] = true
		assert.Equal(t, "New Salon Application", r.Title)
		assert.Equal(t, models.NotificationTypeSalonVerification, r.NotificationType)
		assert.Equal(t, models.NotificationStatusPending, r.Status)
		require.NotNil(t, r.RelatedID)
		assert.Equal(t, relatedID, *r.RelatedID)
	}
	for _, a := range admins {
		assert.True(t, recipients[a.ID], "admin %s not notified", a.ID)
	}
}

func TestNotificationService_RelatedOwnerSubstitutesSalonName(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newNotificationService(t, db, nil)
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Hype Hair", models.SalonStatusPending)

	n, err := svc.Broadcast(context.Background(), Broadcast{
		Recipients: []Recipient{RelatedOwner()},
		EventType:  models.NotificationTypeSalonVerification,
		Title:      "Salon Approved",
		Message:    "{salon_name} has been approved.",
		RelatedID:  &salon.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	history, err := svc.History(context.Background(), models.NotificationTypeSalonVerification, salon.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, owner.ID, history[0].UserID)
	assert.Equal(t, "Hype Hair has been approved.", history[0].Message)
}

func TestNotificationService_OwnerTemplateUsesAllValues(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newNotificationService(t, db, nil)
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Hype Hair", models.SalonStatusPending)

	_, err := svc.Broadcast(context.Background(), Broadcast{
		Recipients: []Recipient{RelatedOwner()},
		EventType:  models.NotificationTypeSalonVerification,
		Title:      "Salon Denied",
		Message:    "{salon_name} was denied. Reason(s): {reason}",
		Values:     map[string]any{"reason": "Incomplete docs"},
		RelatedID:  &salon.ID,
	})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), models.NotificationTypeSalonVerification, salon.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Hype Hair was denied. Reason(s): Incomplete docs", history[0].Message)
}

func TestNotificationService_MissingKeyKeepsRawTemplate(t *testing.T) {
	db := testutil.NewDB(t)
	core, logs := observer.New(zap.WarnLevel)
	svc := NewNotificationService(db, nil, zap.New(core))
	testutil.CreateUser(t, db, models.RoleAdmin)
	testutil.CreateUser(t, db, models.RoleAdmin)

	n, err := svc.Broadcast(context.Background(), Broadcast{
		Recipients: []Recipient{Admins()},
		EventType:  models.NotificationTypeSystemEvent,
		Title:      "New Salon Application",
		Message:    "New salon application by {salon_name} submitted.",
		Values:     map[string]any{"user_role": models.RoleSalonOwner},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	var records []models.Notification
	require.NoError(t, db.Find(&records).Error)
	for _, r := range records {
		assert.Equal(t, "New salon application by {salon_name} submitted.", r.Message)
	}
	// Rendered once per broadcast, not once per recipient.
	assert.Equal(t, 1, logs.FilterMessage("notification template key missing, using raw template").Len())
}

func TestNotificationService_RelatedUserResolvesCustomer(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newNotificationService(t, db, nil)
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Fade Factory", models.SalonStatusVerified)
	_, barber := testutil.CreateBarber(t, db, salon.ID)
	customer := testutil.CreateUser(t, db, models.RoleCustomer)

	appointment := &models.Appointment{
		CustomerID:      customer.ID,
		BarberID:        barber.ID,
		SalonID:         salon.ID,
		AppointmentDate: datatypes.Date(mustDate(t, "2030-01-15")),
		StartTime:       datatypes.NewTime(10, 0, 0, 0),
		EndTime:         datatypes.NewTime(10, 30, 0, 0),
	}
	require.NoError(t, db.Create(appointment).Error)

	n, err := svc.Broadcast(context.Background(), Broadcast{
		Recipients: []Recipient{RelatedUser()},
		EventType:  models.NotificationTypeAppointmentUpdate,
		Title:      "Appointment Updated",
		Message:    "Your appointment changed.",
		RelatedID:  &appointment.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	list, err := svc.ListForUser(context.Background(), customer.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Appointment Updated", list[0].Title)
}

func TestNotificationService_UnresolvableRecipientsSkipped(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newNotificationService(t, db, nil)
	missing := uuid.New()

	tests := []struct {
		name string
		b    Broadcast
	}{
		{"owner without related id", Broadcast{Recipients: []Recipient{RelatedOwner()}}},
		{"user without related id", Broadcast{Recipients: []Recipient{RelatedUser()}}},
		{"owner of unknown salon", Broadcast{Recipients: []Recipient{RelatedOwner()}, RelatedID: &missing}},
		{"customer of unknown appointment", Broadcast{Recipients: []Recipient{RelatedUser()}, RelatedID: &missing}},
		{"role with no members", Broadcast{Recipients: []Recipient{Admins()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.b.EventType = models.NotificationTypeSystemEvent
			tt.b.Title = "t"
			tt.b.Message = "m"
			n, err := svc.Broadcast(context.Background(), tt.b)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotificationService_SMSRelayFailureSwallowed(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &testutil.RecordingMessenger{Err: errors.New("twilio down")}
	svc := newNotificationService(t, db, sms)
	user := testutil.CreateUser(t, db, models.RoleCustomer, testutil.WithPhone("5555555555"))

	n, err := svc.Broadcast(context.Background(), Broadcast{
		Recipients: []Recipient{ToUser(user.ID)},
		EventType:  models.NotificationTypeSystemEvent,
		Title:      "Hello",
		Message:    "World",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNotificationService_SMSRelay(t *testing.T) {
	db := testutil.NewDB(t)
	sms := &testutil.RecordingMessenger{}
	svc := newNotificationService(t, db, sms)
	withPhone := testutil.CreateUser(t, db, models.RoleAdmin, testutil.WithPhone("5555555555"))
	testutil.CreateUser(t, db, models.RoleAdmin)

	n, err := svc.Broadcast(context.Background(), Broadcast{
		Recipients: []Recipient{Admins()},
		EventType:  models.NotificationTypeSystemEvent,
		Title:      "Heads up",
		Message:    "Something happened",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sent := sms.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, withPhone.Phone, sent[0].To)
	assert.Equal(t, "Heads up: Something happened", sent[0].Body)
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]any
		want     string
		missing  string
	}{
		{"substitutes", "Reason(s): {reason}", map[string]any{"reason": "Incomplete docs"}, "Reason(s): Incomplete docs", ""},
		{"non string values", "{count} items", map[string]any{"count": 3}, "3 items", ""},
		{"no placeholders", "Your Salon has been approved.", nil, "Your Salon has been approved.", ""},
		{"missing key", "Hello {name}, {reason}", map[string]any{"name": "Ada"}, "", "reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatMessage(tt.template, tt.values)
			if tt.missing != "" {
				var missing *MissingKeyError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, tt.missing, missing.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
