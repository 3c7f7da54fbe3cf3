package services

import (
	"testing"
	"time"

	"salonica-backend/models"
	"salonica-backend/testutil"
	"salonica-backend/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(role string) *models.User {
	return &models.User{
		ID:        uuid.New(),
		Email:     "owner@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      role,
	}
}

func TestTokenService_IssueAndParse(t *testing.T) {
	tokens := NewTokenService(testutil.TestSecret, testAccessExpiry)
	user := testUser(models.RoleSalonOwner)

	signed, expiresAt, err := tokens.IssueAccessToken(user, "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(testAccessExpiry), expiresAt, 5*time.Second)

	claims, err := tokens.ParseAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, TokenAudience, claims.Role)
	assert.Equal(t, models.RoleSalonOwner, claims.UserRole())
}

func TestTokenService_ExpiredToken(t *testing.T) {
	tokens := NewTokenService(testutil.TestSecret, -time.Minute)

	signed, _, err := tokens.IssueAccessToken(testUser(models.RoleCustomer), "s")
	require.NoError(t, err)

	_, err = tokens.ParseAccessToken(signed)
	requireKind(t, err, utils.KindUnauthenticated)
	assert.Contains(t, err.Error(), "Token has expired")
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := NewTokenService("another-secret-that-is-also-32-bytes", testAccessExpiry)
	tokens := NewTokenService(testutil.TestSecret, testAccessExpiry)

	signed, _, err := issuer.IssueAccessToken(testUser(models.RoleCustomer), "s")
	require.NoError(t, err)

	_, err = tokens.ParseAccessToken(signed)
	requireKind(t, err, utils.KindUnauthenticated)
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestTokenService_RejectsMissingClaims(t *testing.T) {
	tokens := NewTokenService(testutil.TestSecret, testAccessExpiry)
	now := time.Now()

	tests := []struct {
		name   string
		claims jwt.RegisteredClaims
	}{
		{
			name: "missing subject",
			claims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{TokenAudience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		},
		{
			name: "wrong audience",
			claims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Audience:  jwt.ClaimStrings{"anon"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		},
		{
			name: "missing expiry",
			claims: jwt.RegisteredClaims{
				Subject:  uuid.NewString(),
				Audience: jwt.ClaimStrings{TokenAudience},
				IssuedAt: jwt.NewNumericDate(now),
			},
		},
		{
			name: "missing issued at",
			claims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Audience:  jwt.ClaimStrings{TokenAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{RegisteredClaims: tt.claims}).
				SignedString([]byte(testutil.TestSecret))
			require.NoError(t, err)

			_, err = tokens.ParseAccessToken(signed)
			requireKind(t, err, utils.KindUnauthenticated)
		})
	}
}

func TestAccessClaims_UserRole(t *testing.T) {
	tests := []struct {
		name   string
		claims AccessClaims
		want   string
	}{
		{"user metadata wins", AccessClaims{
			UserMetadata: map[string]any{"role": models.RoleBarber},
			AppMetadata:  map[string]any{"role": models.RoleAdmin},
		}, models.RoleBarber},
		{"falls back to app metadata", AccessClaims{
			AppMetadata: map[string]any{"role": models.RoleAdmin},
		}, models.RoleAdmin},
		{"unknown role ignored", AccessClaims{
			UserMetadata: map[string]any{"role": "superuser"},
		}, models.RoleCustomer},
		{"defaults to customer", AccessClaims{}, models.RoleCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.UserRole())
		})
	}
}
