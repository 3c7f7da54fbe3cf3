package services

import (
	"errors"
	"fmt"
	"time"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/golang-jwt/jwt/v5"
)

// TokenAudience is the audience every access token is issued for.
const TokenAudience = "authenticated"

// AccessClaims mirrors the claim set of the hosted auth provider so clients
// written against it keep working.
type AccessClaims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	SessionID    string         `json:"session_id"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserRole resolves the application role carried by the claims. User
// metadata wins over app metadata; customer is the fallback.
func (c *AccessClaims) UserRole() string {
	for _, meta := range []map[string]any{c.UserMetadata, c.AppMetadata} {
		if role, ok := meta["role"].(string); ok && models.IsValidRole(role) {
			return role
		}
	}
	return models.RoleCustomer
}

// TokenService issues and locally validates HS256 access tokens.
type TokenService struct {
	secret       []byte
	accessExpiry time.Duration
}

func NewTokenService(secret string, accessExpiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), accessExpiry: accessExpiry}
}

// IssueAccessToken signs a token for user bound to sessionID.
func (s *TokenService) IssueAccessToken(user *models.User, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessExpiry)

	claims := AccessClaims{
		Email:     user.Email,
		Role:      TokenAudience,
		SessionID: sessionID,
		AppMetadata: map[string]any{
			"provider": "email",
			"role":     user.Role,
		},
		UserMetadata: map[string]any{
			"role":       user.Role,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"phone":      user.Phone,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken validates signature, expiry and the required claims.
// It does not check whether the session behind the token is still alive.
func (s *TokenService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.NewUnauthenticatedError("Token has expired")
		}
		return nil, utils.NewUnauthenticatedError("Invalid token")
	}
	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, utils.NewUnauthenticatedError("Invalid token")
	}
	return claims, nil
}
