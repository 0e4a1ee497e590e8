package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

func bearerToken(c echo.Context) (string, bool, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", true, errors.New("invalid Authorization header format")
	}
	return parts[1], true, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's identity on the context.
func (s *Service) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, present, err := bearerToken(c)
		if !present {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}

		id, err := s.ParseToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set(string(identityKey), id)
		return next(c)
	}
}

// OptionalMiddleware attaches the caller's identity when a valid token is
// sent and lets anonymous requests through. An invalid token is rejected.
func (s *Service) OptionalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, present, err := bearerToken(c)
		if !present {
			return next(c)
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}
		id, err := s.ParseToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}
		c.Set(string(identityKey), id)
		return next(c)
	}
}

// RequireRole allows only callers holding one of roles. It must run after
// Middleware.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		}
	}
}

// IdentityFrom returns the identity set by the auth middleware.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(string(identityKey)).(Identity)
	return id, ok
}

// SetIdentity stores id on c. Handlers under test use it in place of a token.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(string(identityKey), id)
}

// GetUserIDFromContext returns the authenticated user's id.
func GetUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := IdentityFrom(c)
	if !ok {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return id.UserID, nil
}
