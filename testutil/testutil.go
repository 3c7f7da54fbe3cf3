// Package testutil builds throwaway databases, session stores and fixtures
// for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const TestSecret = "this-is-a-test-secret-with-32-bytes!"

// DefaultPassword is the password of every fixture user.
const DefaultPassword = "password123"

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

// NewDB opens a private in-memory sqlite database with every table created.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db), "migrate sqlite")
	return db
}

// NewRedis starts a miniredis server and returns a client bound to it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// UserOption customizes a fixture user before it is inserted.
type UserOption func(*models.User)

func WithPhone(phone string) UserOption {
	return func(u *models.User) { u.Phone = phone }
}

func WithEmail(email string) UserOption {
	return func(u *models.User) { u.Email = email }
}

// CreateUser inserts a user with role and DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, role string, opts ...UserOption) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(DefaultPassword)
	require.NoError(t, err)

	id := uuid.New()
	user := &models.User{
		ID:           id,
		Email:        fmt.Sprintf("%s-%s@example.com", strings.ReplaceAll(role, "_", "-"), id.String()[:8]),
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     role,
		Role:         role,
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateSalon inserts a salon owned by ownerID in the given status.
func CreateSalon(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name, status string) *models.Salon {
	t.Helper()

	phone := "5555555555"
	salon := &models.Salon{
		OwnerID: ownerID,
		Name:    name,
		Address: "1 Main St",
		City:    "Newark",
		State:   "NJ",
		ZipCode: "07102",
		Phone:   &phone,
		Status:  status,
	}
	require.NoError(t, db.Create(salon).Error)
	return salon
}

// CreateBarber inserts a barber user and links them to salonID.
func CreateBarber(t *testing.T, db *gorm.DB, salonID uuid.UUID) (*models.User, *models.Barber) {
	t.Helper()

	user := CreateUser(t, db, models.RoleBarber)
	barber := &models.Barber{UserID: user.ID, SalonID: salonID, IsActive: true}
	require.NoError(t, db.Create(barber).Error)
	return user, barber
}

// SentMessage is one message captured by RecordingMessenger.
type SentMessage struct {
	To   string
	Body string
}

// RecordingMessenger captures SMS sends instead of delivering them.
type RecordingMessenger struct {
	mu   sync.Mutex
	sent []SentMessage
	Err  error
}

func (m *RecordingMessenger) Send(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return nil
}

func (m *RecordingMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}
