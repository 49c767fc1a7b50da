// Package middleware holds the gin middleware of the API: caller
// authentication, hydration and guards, plus the cross-cutting HTTP layers.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/infrastructure/auth"
	"github.com/offeringbowl/backend/internal/infrastructure/cache"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys and header names
const (
	IdentityKey   = "identity"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Guard failure messages
const (
	MsgTokenMissing    = "Authorization token missing."
	MsgNoSession       = "No user session found."
	MsgUserDataMissing = "User data missing."
	MsgNotPermitted    = "User does not have the necessary permissions."
)

// UserLookup loads the stored user of a subject
type UserLookup interface {
	Get(ctx context.Context, userID string) (*identity.User, error)
}

// Authenticate verifies the bearer token and stores the caller Identity in
// the gin context.
func Authenticate(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) {
			abort(c, http.StatusUnauthorized, MsgTokenMissing)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abort(c, http.StatusUnauthorized, MsgTokenMissing)
			return
		}

		id, err := verifier.Verify(token)
		if err != nil {
			logger.L(c.Request.Context()).Debug("Token verification failed", zap.Error(err))
			abort(c, http.StatusUnauthorized, verificationMessage(err))
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(logger.WithUID(c.Request.Context(), id.UID))
		c.Next()
	}
}

func verificationMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Invalid token."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

// HydrateUser fills role and userId from storage when the token claims do
// not carry them. Hydration failures are logged and the request continues.
func HydrateUser(users UserLookup, userCache cache.UserCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok || (id.Role != "" && id.UserID != "") {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		user, err := lookupUser(ctx, id.UID, users, userCache)
		if err != nil {
			logger.L(ctx).Warn("Failed to hydrate caller", zap.Error(err))
			c.Next()
			return
		}

		if id.Role == "" {
			id.Role = string(user.Role)
		}
		if id.UserID == "" {
			id.UserID = user.UserID
		}
		if id.Name == "" {
			id.Name = user.Name
		}
		c.Next()
	}
}

func lookupUser(ctx context.Context, uid string, users UserLookup, userCache cache.UserCache) (*identity.User, error) {
	if userCache != nil {
		if user, err := userCache.Get(ctx, uid); err == nil {
			return user, nil
		}
	}
	user, err := users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if userCache != nil {
		if err := userCache.Set(ctx, uid, user); err != nil {
			logger.L(ctx).Warn("Failed to cache user", zap.Error(err))
		}
	}
	return user, nil
}

// RequireRole rejects callers whose role differs from role
func RequireRole(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, MsgNoSession)
			return
		}
		if id.Role != string(role) {
			abort(c, http.StatusForbidden, fmt.Sprintf("User role %s is not permitted.", id.Role))
			return
		}
		c.Next()
	}
}

// RestrictToOwner requires the caller to be the subject of the request: the
// path parameter param, or the hydrated userId when param is empty or absent.
func RestrictToOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, MsgNoSession)
			return
		}

		subject := ""
		if param != "" {
			subject = c.Param(param)
		}
		if subject == "" {
			subject = id.UserID
		}

		switch {
		case subject == "":
			abort(c, http.StatusForbidden, MsgUserDataMissing)
		case subject != id.UID:
			abort(c, http.StatusForbidden, MsgNotPermitted)
		default:
			c.Next()
		}
	}
}

// GetIdentity returns the verified caller, if any
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*auth.Identity)
	return id, ok && id != nil
}

// GetUID returns the verified caller's subject or ""
func GetUID(c *gin.Context) string {
	if id, ok := GetIdentity(c); ok {
		return id.UID
	}
	return ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message))
}
