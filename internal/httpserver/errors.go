package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/baseball_stats/internal/ingest"
	"github.com/Skotchmaster/baseball_stats/internal/search"
	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/labstack/echo/v4"
)

// fail logs err under event and converts it to the error the client sees.
// what names the resource in 404 messages.
func fail(c echo.Context, l *slog.Logger, event, what string, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		l.Warn(event, "status", http.StatusUnprocessableEntity, "reason", "validation failed", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{
			"message": "validation failed",
			"fields":  verr.Fields,
		})

	case errors.Is(err, service.ErrDuplicateEmail):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "email taken")
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	case errors.Is(err, service.ErrDuplicateUsername):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "username taken")
		return echo.NewHTTPError(http.StatusBadRequest, "Username already taken")
	case errors.Is(err, service.ErrDuplicateIdentity):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "identity taken")
		return echo.NewHTTPError(http.StatusBadRequest, "Email or username already registered")

	case errors.Is(err, service.ErrAuthFailure),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrUnauthenticated):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", err.Error())
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInactiveAccount):
		l.Warn(event, "status", http.StatusForbidden, "reason", "inactive account")
		return echo.NewHTTPError(http.StatusForbidden, "Inactive user")

	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", what+" not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")

	case errors.Is(err, service.ErrNotCSV),
		errors.Is(err, service.ErrNotUTF8),
		errors.Is(err, ingest.ErrMissingNameColumn):
		l.Warn(event, "status", http.StatusBadRequest, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrSearchDisabled),
		errors.Is(err, service.ErrGeneratorUnavailable),
		errors.Is(err, service.ErrFeedNotConfigured):
		l.Warn(event, "status", http.StatusServiceUnavailable, "reason", err.Error())
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrGeneratorFailed),
		errors.Is(err, search.ErrSearchFailed):
		l.Error(event, "status", http.StatusBadGateway, "reason", "upstream failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	l.Error(event, "status", http.StatusInternalServerError, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
