package services

import (
	"context"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/google/uuid"
)

// VerifyMode selects how thoroughly a bearer credential is checked.
type VerifyMode int

const (
	// VerifyLocal checks signature, expiry and required claims only.
	VerifyLocal VerifyMode = iota
	// VerifyAuthoritative also confirms with the identity provider that the
	// session is alive, which catches logout and revocation.
	VerifyAuthoritative
)

// Identity is the caller resolved from a verified credential.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
	Claims *AccessClaims
}

func (i *Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

func (i *Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// UserLookup confirms a credential against the identity provider.
type UserLookup interface {
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
}

// TokenVerifier turns bearer credentials into identities.
type TokenVerifier struct {
	tokens *TokenService
	users  UserLookup
}

func NewTokenVerifier(tokens *TokenService, users UserLookup) *TokenVerifier {
	return &TokenVerifier{tokens: tokens, users: users}
}

// Verify validates token in the given mode. Every failure is an
// Unauthenticated AppError.
func (v *TokenVerifier) Verify(ctx context.Context, token string, mode VerifyMode) (*Identity, error) {
	claims, err := v.tokens.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, utils.NewUnauthenticatedError("Invalid token")
	}

	identity := &Identity{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.UserRole(),
		Claims: claims,
	}

	if mode == VerifyAuthoritative {
		user, err := v.users.GetUser(ctx, token)
		if err != nil {
			if utils.KindOf(err) == utils.KindUnauthenticated {
				return nil, err
			}
			return nil, utils.NewUnauthenticatedError("Token verification failed")
		}
		identity.Email = user.Email
		identity.Role = user.Role
	}

	return identity, nil
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	return identity, ok && identity != nil
}
