package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roamplan/roamplan-backend/internal/service"
	"github.com/roamplan/roamplan-backend/internal/util"
)

const (
	contextUserKey  = "authenticated_user_id"
	contextTokenKey = "authenticated_token"
)

// RequireAuth validates the bearer token against live sessions and puts the
// caller's user id into the request context.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing bearer token"))
			}
			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid or expired session"))
			}
			c.Set(contextUserKey, user.ID)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

// OptionalAuth resolves the caller when a valid token is present but lets
// anonymous requests through. Handlers decide what anonymity means.
func OptionalAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := bearerToken(c); token != "" {
				if user, err := auth.Authenticate(c.Request().Context(), token); err == nil {
					c.Set(contextUserKey, user.ID)
					c.Set(contextTokenKey, token)
				}
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user id stored by RequireAuth.
func CurrentUser(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(contextUserKey).(uuid.UUID)
	return id, ok
}

func currentToken(c echo.Context) string {
	token, _ := c.Get(contextTokenKey).(string)
	return token
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		// Browser websocket clients cannot set Authorization headers.
		return c.QueryParam("token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
