package services

import (
	"testing"
	"time"

	"salonica-backend/models"
	"salonica-backend/testutil"
	"salonica-backend/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	testAccessExpiry  = 15 * time.Minute
	testRefreshExpiry = 168 * time.Hour
)

type authFixture struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	tokens   *TokenService
	sessions *SessionStore
	auth     *AuthService
	verifier *TokenVerifier
	sms      *testutil.RecordingMessenger
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	tokens := NewTokenService(testutil.TestSecret, testAccessExpiry)
	sessions := NewSessionStore(rdb, testRefreshExpiry)
	sms := &testutil.RecordingMessenger{}
	auth := NewAuthService(db, sessions, tokens, sms, AuthConfig{
		RecoveryTokenExpiry: time.Hour,
		PasswordResetURL:    "http://localhost:5173/reset-password",
	}, zaptest.NewLogger(t))

	return &authFixture{
		db:       db,
		mr:       mr,
		tokens:   tokens,
		sessions: sessions,
		auth:     auth,
		verifier: NewTokenVerifier(tokens, auth),
		sms:      sms,
	}
}

func identityOf(u *models.User) *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func requireKind(t *testing.T, err error, kind utils.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, utils.KindOf(err), "unexpected error: %v", err)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(utils.DateLayout, s)
	require.NoError(t, err)
	return d
}
