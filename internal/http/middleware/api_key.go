package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
	echo "github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Authenticator is satisfied by *accounts.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (model.Identity, error)
}

// IdentityFromCtx extracts the caller set by APIKeyMiddleware.
func IdentityFromCtx(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok && id.AccountID > 0
}

// SetIdentity stores the caller on the request context.
func SetIdentity(c echo.Context, id model.Identity) { c.Set(identityKey, id) }

func apiKeyOf(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// APIKeyMiddleware authenticates requests using the X-API-Key header or a
// bearer token holding the same key.
func APIKeyMiddleware(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := apiKeyOf(c.Request())
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			id, err := auth.Authenticate(c.Request().Context(), key)
			switch {
			case errors.Is(err, errs.ErrInvalidCredentials):
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			case errors.Is(err, errs.ErrAccountInactive):
				return c.JSON(http.StatusForbidden, map[string]string{"error": "account inactive"})
			case err != nil:
				c.Logger().Errorf("authenticate: %v", err)
				return c.JSON(http.StatusServiceUnavailable, map[string]any{"error": "auth error", "retryable": true})
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin callers. It must run after APIKeyMiddleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := IdentityFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		if !id.IsAdmin() {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin only"})
		}
		return next(c)
	}
}
