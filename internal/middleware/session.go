package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/labstack/echo/v4"
)

const userContextKey = "current_user"

// Authenticator resolves an access token to its user.
type Authenticator interface {
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

// SessionGuard protects routes with bearer access tokens. RequireUser answers
// 401 for a missing or bad token, RequireActive additionally answers 403 for a
// disabled account.
type SessionGuard struct {
	Auth Authenticator
}

func (g *SessionGuard) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "session")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return unauthorized(c)
		}
		user, err := g.Auth.CurrentUser(ctx, raw)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				l.Info("session_rejected", "status", http.StatusUnauthorized, "path", c.Path())
				return unauthorized(c)
			}
			l.Error("session_lookup_failed", "status", http.StatusInternalServerError, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}

		c.Set(userContextKey, user)
		c.SetRequest(c.Request().WithContext(logging.With(ctx, "user_id", user.ID.String())))
		return next(c)
	}
}

func (g *SessionGuard) RequireActive(next echo.HandlerFunc) echo.HandlerFunc {
	return g.RequireUser(func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || !user.IsActive {
			return echo.NewHTTPError(http.StatusForbidden, "Inactive user")
		}
		return next(c)
	})
}

// CurrentUser returns the user stored by the guard, or nil on an unguarded route.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userContextKey).(*models.User)
	return u
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, service.ErrUnauthenticated.Error())
}
