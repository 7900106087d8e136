package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/metrics"
	"github.com/Skotchmaster/baseball_stats/internal/middleware"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/labstack/echo/v4"
)

const Version = "0.1.0"

type Deps struct {
	AppName string
	Guard   *middleware.SessionGuard
	Auth    *AuthHTTP
	Players *PlayerHTTP
	Imports *ImportHTTP
	AI      *AIHTTP
	// Ready reports whether the storage backend answers. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "healthy", "service": d.AppName, "version": Version})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.GET("/me", d.Auth.Me, d.Guard.RequireActive)

	players := v1.Group("/players")
	players.GET("", d.Players.List)
	players.GET("/search", d.Players.Search)
	players.GET("/:id", d.Players.Get)

	players.POST("", d.Players.Create, d.Guard.RequireActive)
	players.PUT("/:id", d.Players.Update, d.Guard.RequireActive)
	players.DELETE("/:id", d.Players.Delete, d.Guard.RequireActive)

	players.POST("/import", d.Imports.ImportCSV, d.Guard.RequireActive)
	players.POST("/import-from-api", d.Imports.ImportFromAPI, d.Guard.RequireActive)
	players.GET("/import-jobs/:id", d.Imports.Job, d.Guard.RequireActive)

	ai := v1.Group("/ai")
	ai.POST("/players/:id/description", d.AI.Generate, d.Guard.RequireActive)
	ai.GET("/players/:id/descriptions", d.AI.List)
}

func (d *Deps) ready(c echo.Context) error {
	if d.Ready == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := d.Ready(ctx); err != nil {
		logging.FromContext(ctx).Warn("readiness_failed", "status", http.StatusServiceUnavailable, "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
