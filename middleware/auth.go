package middleware

import (
	"context"
	"net/http"
	"strings"

	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	userIDKey   = "userId"
)

// Verifier resolves a bearer credential to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string, mode services.VerifyMode) (*services.Identity, error)
}

// RequireAuth rejects requests without a valid bearer credential and
// publishes the caller's identity for downstream handlers.
func RequireAuth(v Verifier, mode services.VerifyMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, v, mode) {
			return
		}
		c.Next()
	}
}

// RequireRoles authenticates like RequireAuth and then requires the
// caller's role to be one of roles.
func RequireRoles(v Verifier, mode services.VerifyMode, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, v, mode) {
			return
		}
		identity := MustIdentity(c)
		if !identity.HasRole(roles...) {
			utils.RespondWithError(c, http.StatusForbidden,
				"This endpoint requires one of the following roles: "+strings.Join(roles, ", "))
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, v Verifier, mode services.VerifyMode) bool {
	token, err := utils.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return false
	}

	identity, err := v.Verify(c.Request.Context(), token, mode)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return false
	}

	c.Set(identityKey, identity)
	c.Set(userIDKey, identity.UserID.String())
	c.Request = c.Request.WithContext(services.WithIdentity(c.Request.Context(), identity))
	return true
}

// CurrentIdentity returns the identity published by the auth middleware.
func CurrentIdentity(c *gin.Context) (*services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*services.Identity)
	return identity, ok
}

// MustIdentity is CurrentIdentity for handlers mounted behind the auth
// middleware.
func MustIdentity(c *gin.Context) *services.Identity {
	identity, ok := CurrentIdentity(c)
	if !ok {
		panic("middleware: identity missing from context, route is not behind RequireAuth")
	}
	return identity
}
