package httpserver

import (
	"net/http"
	"strings"

	"github.com/Skotchmaster/baseball_stats/internal/middleware"
	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/Skotchmaster/baseball_stats/internal/transport"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_failed", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return fail(c, l, "register_failed", "user", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.NewUserResponse(user))
}

// Login takes the OAuth2 password form; the email is sent as "username".
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_failed", "invalid body", err)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return fail(c, l, "login_failed", "user", &service.ValidationError{Fields: missing(map[string]string{
			"username": req.Username,
			"password": req.Password,
		})})
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, l, "login_failed", "user", err)
	}

	l.Info("login_success")
	return c.JSON(http.StatusOK, tokenResponse(pair))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw := c.QueryParam("refresh_token")
	if raw == "" {
		raw = c.FormValue("refresh_token")
	}
	if raw == "" {
		return fail(c, l, "refresh_failed", "token", &service.ValidationError{Fields: map[string]string{
			"refresh_token": "field required",
		}})
	}

	pair, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return fail(c, l, "refresh_failed", "token", err)
	}

	l.Info("refresh_success")
	return c.JSON(http.StatusOK, tokenResponse(pair))
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrUnauthenticated.Error())
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func tokenResponse(p *service.TokenPair) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
	}
}

func missing(fields map[string]string) map[string]string {
	out := map[string]string{}
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			out[name] = "field required"
		}
	}
	return out
}
