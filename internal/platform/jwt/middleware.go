package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog_backend/internal/api"
	"catalog_backend/internal/feature/auth/domain"
	"catalog_backend/internal/feature/auth/domain/entity"
)

// Context keys set by AuthRequired for downstream handlers.
const (
	ContextUser   = "currentUser"
	ContextUserID = "userID"
)

// Authenticator resolves a bearer token to its owning user. Implementations
// must also perform the stored-current-token comparison so that logged-out
// tokens are rejected before natural expiry.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// AuthRequired returns a Gin middleware function that validates bearer tokens
// and restricts access to authenticated users only.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		header := c.GetHeader("Authorization")
		tokenStr := ""
		if strings.HasPrefix(header, "Bearer ") {
			tokenStr = strings.TrimPrefix(header, "Bearer ")
		}

		// 2. Resolve the owning user (signature, expiry, revocation, referent)
		user, err := auth.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			status := http.StatusUnauthorized
			switch {
			case errors.Is(err, domain.ErrTokenAbsent),
				errors.Is(err, domain.ErrTokenExpired),
				errors.Is(err, domain.ErrTokenInvalid):
				// 401, message per subtype
			case errors.Is(err, domain.ErrUserNotFound):
				// Structurally valid token but the referent is gone
				status = http.StatusNotFound
			default:
				slog.Error("authentication failed", "error", err, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusInternalServerError, api.Fail("internal error"))
				return
			}
			c.AbortWithStatusJSON(status, api.Fail(capitalize(err.Error())))
			return
		}

		// 3. Expose the resolved user to downstream handlers
		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthRequired.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok
}

// capitalize uppercases the first byte of an ASCII error message for the
// user-facing envelope.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-('a'-'A')) + s[1:]
	}
	return s
}
