package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"salonica-backend/models"
	"salonica-backend/testutil"
	"salonica-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type failingStore struct{}

func (failingStore) Upload(ctx context.Context, bucket, objectPath string, body io.Reader) error {
	return errors.New("bucket unavailable")
}

func (failingStore) SignedURL(bucket, objectPath string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func newSalonService(t *testing.T, db *gorm.DB) *SalonService {
	t.Helper()
	storage := NewLocalStorage(t.TempDir(), "http://localhost:8080", testutil.TestSecret, time.Hour)
	logger := zaptest.NewLogger(t)
	return NewSalonService(db, storage, NewNotificationService(db, nil, logger), logger)
}

func validApply() ApplyParams {
	return ApplyParams{
		Name:    "Hype Hair",
		Address: "12 Broad St",
		City:    "Newark",
		State:   "nj",
		ZipCode: "07102",
		Phone:   "555-555-5555",
	}
}

func TestSalonService_Apply(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)

	salon, err := svc.Apply(context.Background(), identityOf(owner), validApply())
	require.NoError(t, err)
	assert.Equal(t, models.SalonStatusPending, salon.Status)
	assert.Equal(t, owner.ID, salon.OwnerID)
	assert.Equal(t, "NJ", salon.State)
	require.NotNil(t, salon.Phone)
	assert.Equal(t, "5555555555", *salon.Phone)
	require.NotNil(t, salon.Email)
	assert.Equal(t, owner.Email, *salon.Email, "email defaults to the owner's")
}

func TestSalonService_ApplyValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	owner := identityOf(testutil.CreateUser(t, db, models.RoleSalonOwner))

	tests := []struct {
		name   string
		mutate func(*ApplyParams)
	}{
		{"bad state", func(p *ApplyParams) { p.State = "New Jersey" }},
		{"bad zip", func(p *ApplyParams) { p.ZipCode = "7102" }},
		{"bad phone", func(p *ApplyParams) { p.Phone = "12345" }},
		{"short name", func(p *ApplyParams) { p.Name = "H" }},
		{"no contact", func(p *ApplyParams) { p.Phone = ""; p.Email = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validApply()
			tt.mutate(&p)
			_, err := svc.Apply(context.Background(), owner, p)
			requireKind(t, err, utils.KindValidation)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Salon{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSalonService_ApplyWithFiles(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)

	p := validApply()
	p.License = &FileUpload{Filename: "license.pdf", Body: strings.NewReader("%PDF")}
	p.Logo = &FileUpload{Filename: "logo.png", Body: strings.NewReader("png")}

	salon, err := svc.Apply(context.Background(), identityOf(owner), p)
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), salon.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.LicenseURL, "/api/files/"+BucketSalonDocuments+"/"+salon.ID.String()+"/license/")
	assert.Contains(t, stored.LogoURL, "/api/files/"+BucketSalonLogos+"/"+salon.ID.String()+"/logo/")
}

func TestSalonService_ApplyUploadFailureKeepsRow(t *testing.T) {
	db := testutil.NewDB(t)
	logger := zaptest.NewLogger(t)
	svc := NewSalonService(db, failingStore{}, NewNotificationService(db, nil, logger), logger)
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)

	p := validApply()
	p.License = &FileUpload{Filename: "license.pdf", Body: strings.NewReader("%PDF")}

	salon, err := svc.Apply(context.Background(), identityOf(owner), p)
	requireKind(t, err, utils.KindUpstream)
	require.NotNil(t, salon)

	stored, err := svc.Get(context.Background(), salon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SalonStatusPending, stored.Status)
	assert.Empty(t, stored.LicenseURL)
}

func TestSalonService_Lifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)

	salon, err := svc.Apply(ctx, identityOf(owner), validApply())
	require.NoError(t, err)

	// Appeal is only possible once rejected.
	_, err = svc.Appeal(ctx, salon.ID, owner.ID, AppealParams{})
	requireKind(t, err, utils.KindConflict)
	assert.Contains(t, err.Error(), "pending")

	rejected, err := svc.Reject(ctx, salon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SalonStatusRejected, rejected.Status)

	appealed, err := svc.Appeal(ctx, salon.ID, owner.ID, AppealParams{Updates: map[string]any{
		"description": "Fixed",
		"status":      models.SalonStatusVerified,
		"owner_id":    "someone-else",
	}})
	require.NoError(t, err)
	assert.Equal(t, models.SalonStatusPending, appealed.Status)
	assert.Equal(t, "Fixed", appealed.Description)
	assert.Equal(t, owner.ID, appealed.OwnerID)

	approved, err := svc.Approve(ctx, salon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SalonStatusVerified, approved.Status)

	// verified is terminal
	_, err = svc.Reject(ctx, salon.ID)
	requireKind(t, err, utils.KindConflict)
	_, err = svc.Approve(ctx, salon.ID)
	requireKind(t, err, utils.KindConflict)

	_, err = svc.Appeal(ctx, salon.ID, owner.ID, AppealParams{})
	requireKind(t, err, utils.KindConflict)
	assert.Contains(t, err.Error(), "verified")
}

func TestSalonService_StatusHistoryOldestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	logger := zaptest.NewLogger(t)
	notifications := NewNotificationService(db, nil, logger)
	svc := NewSalonService(db, NewLocalStorage(t.TempDir(), "http://localhost:8080", testutil.TestSecret, time.Hour), notifications, logger)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Hype Hair", models.SalonStatusPending)

	empty, err := svc.StatusHistory(ctx, salon.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, title := range []string{"Salon Denied", "Salon Appeal submitted", "Salon Approved"} {
		_, err := notifications.Broadcast(ctx, Broadcast{
			Recipients: []Recipient{RelatedOwner()},
			EventType:  models.NotificationTypeSalonVerification,
			Title:      title,
			Message:    title,
			RelatedID:  &salon.ID,
		})
		require.NoError(t, err)
	}
	_, err = notifications.Broadcast(ctx, Broadcast{
		Recipients: []Recipient{ToUser(owner.ID)},
		EventType:  models.NotificationTypeSystemEvent,
		Title:      "Unrelated",
		Message:    "Unrelated",
		RelatedID:  &salon.ID,
	})
	require.NoError(t, err)

	timeline, err := svc.StatusHistory(ctx, salon.ID)
	require.NoError(t, err)
	var titles []string
	for _, n := range timeline {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Salon Denied", "Salon Appeal submitted", "Salon Approved"}, titles)
}

func TestSalonService_AppealNonOwnerForbiddenRegardlessOfStatus(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	stranger := testutil.CreateUser(t, db, models.RoleSalonOwner)

	for _, status := range []string{models.SalonStatusPending, models.SalonStatusRejected, models.SalonStatusVerified} {
		salon := testutil.CreateSalon(t, db, owner.ID, "Salon "+status, status)
		_, err := svc.Appeal(ctx, salon.ID, stranger.ID, AppealParams{})
		requireKind(t, err, utils.KindForbidden)
	}
}

func TestSalonService_AppealValidatesUpdates(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Rejected Cuts", models.SalonStatusRejected)

	tests := []struct {
		name    string
		updates map[string]any
	}{
		{"non string value", map[string]any{"name": 42}},
		{"bad phone", map[string]any{"phone": "123"}},
		{"short name", map[string]any{"name": "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Appeal(ctx, salon.ID, owner.ID, AppealParams{Updates: tt.updates})
			requireKind(t, err, utils.KindValidation)
		})
	}

	stored, err := svc.Get(ctx, salon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SalonStatusRejected, stored.Status)
}

func TestSalonService_MissingSalon(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	ctx := context.Background()
	ghost := testutil.CreateSalon(t, db, testutil.CreateUser(t, db, models.RoleSalonOwner).ID, "Ghost", models.SalonStatusPending)
	require.NoError(t, db.Delete(ghost).Error)

	_, err := svc.Approve(ctx, ghost.ID)
	requireKind(t, err, utils.KindNotFound)
	_, err = svc.Reject(ctx, ghost.ID)
	requireKind(t, err, utils.KindNotFound)
	_, err = svc.StatusHistory(ctx, ghost.ID)
	requireKind(t, err, utils.KindNotFound)
}

func TestSalonService_ListPendingAndMine(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	other := testutil.CreateUser(t, db, models.RoleSalonOwner)

	testutil.CreateSalon(t, db, owner.ID, "Pending One", models.SalonStatusPending)
	testutil.CreateSalon(t, db, owner.ID, "Verified One", models.SalonStatusVerified)
	testutil.CreateSalon(t, db, other.ID, "Pending Two", models.SalonStatusPending)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	mine, err := svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestSalonService_AddBarber(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newSalonService(t, db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleSalonOwner)
	stranger := testutil.CreateUser(t, db, models.RoleSalonOwner)
	salon := testutil.CreateSalon(t, db, owner.ID, "Fade Factory", models.SalonStatusVerified)
	barberUser := testutil.CreateUser(t, db, models.RoleBarber)
	customer := testutil.CreateUser(t, db, models.RoleCustomer)

	_, err := svc.AddBarber(ctx, identityOf(stranger), salon.ID, barberUser.ID)
	requireKind(t, err, utils.KindForbidden)

	_, err = svc.AddBarber(ctx, identityOf(owner), salon.ID, customer.ID)
	requireKind(t, err, utils.KindValidation)

	barber, err := svc.AddBarber(ctx, identityOf(owner), salon.ID, barberUser.ID)
	require.NoError(t, err)
	assert.Equal(t, salon.ID, barber.SalonID)

	_, err = svc.AddBarber(ctx, identityOf(owner), salon.ID, barberUser.ID)
	requireKind(t, err, utils.KindConflict)

	barbers, err := svc.ListBarbers(ctx, salon.ID)
	require.NoError(t, err)
	require.Len(t, barbers, 1)
	require.NotNil(t, barbers[0].User)
	assert.Equal(t, barberUser.Email, barbers[0].User.Email)
}
