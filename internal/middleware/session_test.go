package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	users map[string]*models.User
	err   error
}

func (f *fakeAuth) CurrentUser(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrUnauthenticated
}

func newGuard() *SessionGuard {
	return &SessionGuard{Auth: &fakeAuth{users: map[string]*models.User{
		"good":     {ID: uuid.New(), Username: "ruth", IsActive: true},
		"disabled": {ID: uuid.New(), Username: "gehrig", IsActive: false},
	}}}
}

func serve(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *models.User, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *models.User
	err := mw(func(c echo.Context) error {
		seen = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, seen, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "want *echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"scheme is case-insensitive", "bearer good", http.StatusOK},
		{"inactive user still passes", "BEARER disabled", http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := newGuard()

			rec, seen, err := serve(t, g.RequireUser, tt.header)
			if tt.status == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				require.NotNil(t, seen)
				return
			}
			assert.Equal(t, tt.status, statusOf(t, err))
			assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
			assert.Nil(t, seen)
		})
	}
}

func TestRequireActive(t *testing.T) {
	t.Parallel()
	g := newGuard()

	_, _, err := serve(t, g.RequireActive, "")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, seen, err := serve(t, g.RequireActive, "Bearer disabled")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	assert.Nil(t, seen)

	rec, seen, err := serve(t, g.RequireActive, "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ruth", seen.Username)
}

func TestRequireUser_StoreFailureIsNotAnAuthError(t *testing.T) {
	t.Parallel()
	g := &SessionGuard{Auth: &fakeAuth{err: errors.New("connection refused")}}

	rec, _, err := serve(t, g.RequireUser, "Bearer good")
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Empty(t, rec.Header().Get(echo.HeaderWWWAuthenticate))
}
