package services

import (
	"context"
	"testing"
	"time"

	"salonica-backend/models"
	"salonica-backend/testutil"
	"salonica-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
)

func slot(day, startHour, endHour int) AvailabilitySlot {
	return AvailabilitySlot{
		DayOfWeek: day,
		StartTime: datatypes.NewTime(startHour, 0, 0, 0),
		EndTime:   datatypes.NewTime(endHour, 0, 0, 0),
	}
}

func TestScheduleService_BarberWritesOwnAvailability(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewScheduleService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Fade Factory", models.SalonStatusVerified)
	barberUser, barber := testutil.CreateBarber(t, db, salon.ID)

	created, err := svc.CreateAvailability(ctx, identityOf(barberUser), []AvailabilitySlot{slot(1, 9, 17), slot(2, 9, 13)})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, s := range created {
		assert.Equal(t, barber.ID, s.BarberID)
		assert.True(t, s.IsActive)
	}

	mine, err := svc.BarberForUser(ctx, barberUser.ID)
	require.NoError(t, err)
	slots, err := svc.GetAvailability(ctx, mine.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 1, slots[0].DayOfWeek)

	other := uuid.New()
	foreign := slot(3, 9, 10)
	foreign.BarberID = &other
	_, err = svc.CreateAvailability(ctx, identityOf(barberUser), []AvailabilitySlot{foreign})
	requireKind(t, err, utils.KindForbidden)
}

func TestScheduleService_AvailabilityValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewScheduleService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Fade Factory", models.SalonStatusVerified)
	barberUser, _ := testutil.CreateBarber(t, db, salon.ID)

	_, err := svc.CreateAvailability(ctx, identityOf(barberUser), []AvailabilitySlot{slot(1, 9, 10), slot(7, 9, 10)})
	requireKind(t, err, utils.KindValidation)

	_, err = svc.CreateAvailability(ctx, identityOf(barberUser), []AvailabilitySlot{slot(1, 12, 9)})
	requireKind(t, err, utils.KindValidation)

	// The failing batch is rolled back as a whole.
	var count int64
	require.NoError(t, db.Model(&models.BarberAvailability{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestScheduleService_OwnerMustNameOwnBarber(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewScheduleService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Fade Factory", models.SalonStatusVerified)
	_, barber := testutil.CreateBarber(t, db, salon.ID)
	stranger := testutil.CreateUser(t, db, models.RoleSalonOwner)

	_, err := svc.CreateAvailability(ctx, identityOf(owner), []AvailabilitySlot{slot(1, 9, 17)})
	requireKind(t, err, utils.KindValidation)

	s := slot(1, 9, 17)
	s.BarberID = &barber.ID
	_, err = svc.CreateAvailability(ctx, identityOf(stranger), []AvailabilitySlot{s})
	requireKind(t, err, utils.KindForbidden)

	created, err := svc.CreateAvailability(ctx, identityOf(owner), []AvailabilitySlot{s})
	require.NoError(t, err)
	require.Len(t, created, 1)

	customer := testutil.CreateUser(t, db, models.RoleCustomer)
	_, err = svc.CreateAvailability(ctx, identityOf(customer), []AvailabilitySlot{s})
	requireKind(t, err, utils.KindForbidden)
}

func TestScheduleService_UpdateAvailabilityPartial(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewScheduleService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Fade Factory", models.SalonStatusVerified)
	barberUser, barber := testutil.CreateBarber(t, db, salon.ID)

	created, err := svc.CreateAvailability(ctx, identityOf(barberUser), []AvailabilitySlot{slot(1, 9, 17)})
	require.NoError(t, err)

	inactive := false
	end := datatypes.NewTime(15, 0, 0, 0)
	updated, err := svc.UpdateAvailability(ctx, identityOf(barberUser), []AvailabilityPatch{
		{ID: created[0].ID, EndTime: &end, IsActive: &inactive},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, 1, updated[0].DayOfWeek)
	assert.Equal(t, end, updated[0].EndTime)
	assert.False(t, updated[0].IsActive)

	slots, err := svc.GetAvailability(ctx, barber.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, datatypes.NewTime(9, 0, 0, 0), slots[0].StartTime)
	assert.Equal(t, end, slots[0].EndTime)
	assert.False(t, slots[0].IsActive)

	early := datatypes.NewTime(8, 0, 0, 0)
	_, err = svc.UpdateAvailability(ctx, identityOf(barberUser), []AvailabilityPatch{{ID: created[0].ID, EndTime: &early}})
	requireKind(t, err, utils.KindValidation)

	_, err = svc.UpdateAvailability(ctx, identityOf(barberUser), []AvailabilityPatch{{ID: uuid.New(), IsActive: &inactive}})
	requireKind(t, err, utils.KindNotFound)
}

func TestScheduleService_MissingBarber(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewScheduleService(db, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := svc.GetAvailability(ctx, uuid.New())
	requireKind(t, err, utils.KindNotFound)

	loner := testutil.CreateUser(t, db, models.RoleBarber)
	_, err = svc.BarberForUser(ctx, loner.ID)
	requireKind(t, err, utils.KindValidation)
}

func TestScheduleService_Unavailability(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewScheduleService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Fade Factory", models.SalonStatusVerified)
	barberUser, barber := testutil.CreateBarber(t, db, salon.ID)
	otherUser, _ := testutil.CreateBarber(t, db, salon.ID)

	start := time.Date(2030, 4, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.CreateUnavailability(ctx, identityOf(barberUser), UnavailabilityParams{
		StartDatetime: start,
		EndDatetime:   start.Add(-time.Hour),
	})
	requireKind(t, err, utils.KindValidation)

	period, err := svc.CreateUnavailability(ctx, identityOf(barberUser), UnavailabilityParams{
		StartDatetime: start,
		EndDatetime:   start.Add(8 * time.Hour),
		Reason:        "Vacation",
	})
	require.NoError(t, err)
	assert.Equal(t, barber.ID, period.BarberID)

	periods, err := svc.ListUnavailability(ctx, barber.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "Vacation", periods[0].Reason)

	err = svc.DeleteUnavailability(ctx, identityOf(otherUser), period.ID)
	requireKind(t, err, utils.KindForbidden)

	require.NoError(t, svc.DeleteUnavailability(ctx, identityOf(owner), period.ID))

	err = svc.DeleteUnavailability(ctx, identityOf(owner), period.ID)
	requireKind(t, err, utils.KindNotFound)
}
